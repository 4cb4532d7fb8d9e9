// Package repository defines the data access contracts for projects, nodes,
// sessions, and assets. The backing store is reached through a constrained
// query interface: single-row inserts, updates, and deletes, with a
// uniqueness constraint on (project_id, order_index). No multi-row
// transaction is exposed to this layer.
package repository

import (
	"context"
	"encoding/json"

	"giftflow-backend/internal/domain/flow"
)

// ProjectRepository persists projects scoped by owner.
type ProjectRepository interface {
	Create(ctx context.Context, project *flow.Project) error
	FindByID(ctx context.Context, ownerID, projectID string) (*flow.Project, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*flow.Project, error)
	// FindBySlug is the anonymous playback read path. It matches only
	// published projects by their opaque share slug.
	FindBySlug(ctx context.Context, slug string) (*flow.Project, error)
	Update(ctx context.Context, project *flow.Project) error
	Delete(ctx context.Context, ownerID, projectID string) error
}

// NodeRepository persists nodes one row at a time. UpdatePosition is the
// single-row write the positional-integrity engine is built on.
type NodeRepository interface {
	Create(ctx context.Context, node *flow.Node) error
	CreateAll(ctx context.Context, nodes []*flow.Node) error
	FindByID(ctx context.Context, projectID, nodeID string) (*flow.Node, error)
	// FindByProject returns the project's nodes ordered by order_index.
	FindByProject(ctx context.Context, projectID string) ([]*flow.Node, error)
	UpdateContent(ctx context.Context, projectID, nodeID string, content json.RawMessage) error
	UpdatePosition(ctx context.Context, projectID, nodeID string, orderIndex int) error
	Delete(ctx context.Context, projectID, nodeID string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

// SessionRepository persists anonymous playback sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *flow.Session) error
	FindByID(ctx context.Context, sessionID string) (*flow.Session, error)
	// AppendAnswer appends one answer to the session's append-only log.
	AppendAnswer(ctx context.Context, sessionID string, answer flow.Answer) error
	Complete(ctx context.Context, sessionID string) error
	DeleteByProject(ctx context.Context, projectID string) error
}

// AssetRepository persists upload metadata; the bytes live in object storage.
type AssetRepository interface {
	Create(ctx context.Context, asset *flow.Asset) error
	FindByID(ctx context.Context, ownerID, assetID string) (*flow.Asset, error)
	Delete(ctx context.Context, ownerID, assetID string) error
}
