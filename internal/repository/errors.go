package repository

import "fmt"

// ErrNotFound represents a resource not found error in the repository layer.
type ErrNotFound struct {
	Resource string // The type of resource (e.g., "project", "node")
	ID       string // The identifier that was not found
	OwnerID  string // The owner context, if applicable
}

func (e ErrNotFound) Error() string {
	if e.OwnerID != "" {
		return fmt.Sprintf("%s with ID '%s' not found for owner '%s'", e.Resource, e.ID, e.OwnerID)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}

// ErrConflict represents a constraint violation in the repository layer,
// most importantly the uniqueness constraint on (project_id, order_index).
type ErrConflict struct {
	Resource string // The type of resource (e.g., "node")
	ID       string // The identifier that caused the conflict
	Reason   string // The reason for the conflict
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("conflict with %s '%s': %s", e.Resource, e.ID, e.Reason)
}

// IsConflict checks if an error is a repository conflict error.
func IsConflict(err error) bool {
	_, ok := err.(ErrConflict)
	return ok
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewNotFoundWithOwner creates a new ErrNotFound with owner context.
func NewNotFoundWithOwner(resource, id, ownerID string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id, OwnerID: ownerID}
}

// NewConflict creates a new ErrConflict.
func NewConflict(resource, id, reason string) ErrConflict {
	return ErrConflict{Resource: resource, ID: id, Reason: reason}
}
