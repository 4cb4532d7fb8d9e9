package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeInvalidInput     ErrorType = "INVALID_INPUT"
	ErrorTypeUnauthorized     ErrorType = "UNAUTHORIZED"
	ErrorTypeNotFound         ErrorType = "NOT_FOUND"
	ErrorTypeStaleState       ErrorType = "STALE_STATE"
	ErrorTypeStoreFailure     ErrorType = "STORE_FAILURE"
	ErrorTypeGenerationFailed ErrorType = "GENERATION_FAILED"
	ErrorTypeInternal         ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error

	// NeedsRefresh tells the caller its view of the data is stale and must be
	// re-fetched before retrying. Set on StaleState and on StoreFailure raised
	// partway through a multi-step positional write.
	NeedsRefresh bool

	// Attempts records how many upstream attempts were made before a
	// GenerationFailed error was surfaced.
	Attempts int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInput creates an input validation error
func NewInvalidInput(message string) error {
	return &AppError{Type: ErrorTypeInvalidInput, Message: message}
}

// NewUnauthorized creates an ownership/authentication error
func NewUnauthorized(message string) error {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewStaleState creates an error telling the caller to refresh its view of the
// flow before re-issuing the operation.
func NewStaleState(message string) error {
	return &AppError{Type: ErrorTypeStaleState, Message: message, NeedsRefresh: true}
}

// NewStoreFailure creates an error for a row operation that failed partway
// through a multi-step sequence. The caller must re-fetch; re-issuing the
// high-level operation from fresh state converges to a valid ordering.
func NewStoreFailure(message string, err error) error {
	return &AppError{Type: ErrorTypeStoreFailure, Message: message, Err: err, NeedsRefresh: true}
}

// NewGenerationFailed creates an error for an exhausted generation pipeline.
func NewGenerationFailed(message string, attempts int, err error) error {
	return &AppError{Type: ErrorTypeGenerationFailed, Message: message, Err: err, Attempts: attempts}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context, preserving the type of an
// existing AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:         appErr.Type,
			Message:      fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:          appErr.Err,
			NeedsRefresh: appErr.NeedsRefresh,
			Attempts:     appErr.Attempts,
		}
	}

	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsInvalidInput checks if an error is an input validation error
func IsInvalidInput(err error) bool { return isType(err, ErrorTypeInvalidInput) }

// IsUnauthorized checks if an error is an ownership error
func IsUnauthorized(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsStaleState checks if an error is a stale state error
func IsStaleState(err error) bool { return isType(err, ErrorTypeStaleState) }

// IsStoreFailure checks if an error is a store failure
func IsStoreFailure(err error) bool { return isType(err, ErrorTypeStoreFailure) }

// IsGenerationFailed checks if an error is an exhausted generation error
func IsGenerationFailed(err error) bool { return isType(err, ErrorTypeGenerationFailed) }

// NeedsRefresh reports whether the caller should re-fetch flow state before
// retrying the operation that produced err.
func NeedsRefresh(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.NeedsRefresh
}

// Attempts returns the upstream attempt count recorded on a generation error,
// or zero.
func Attempts(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Attempts
	}
	return 0
}
