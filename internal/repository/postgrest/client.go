// Package postgrest implements the repository contracts against a Supabase
// PostgREST endpoint. The store enforces a uniqueness constraint on
// (project_id, order_index) and offers this layer no multi-row transactions;
// every write here is a single-row operation.
package postgrest

import (
	"strings"

	"github.com/supabase-community/postgrest-go"
)

const (
	tableProjects = "projects"
	tableNodes    = "nodes"
	tableSessions = "sessions"
	tableAssets   = "assets"
)

// Client bundles the repository implementations sharing one PostgREST client.
type Client struct {
	Projects *ProjectRepository
	Nodes    *NodeRepository
	Sessions *SessionRepository
	Assets   *AssetRepository
}

// New creates repositories backed by the given PostgREST client. The client
// must carry the service-role key; ownership scoping is applied per query.
func New(db *postgrest.Client) *Client {
	return &Client{
		Projects: &ProjectRepository{db: db},
		Nodes:    &NodeRepository{db: db},
		Sessions: &SessionRepository{db: db},
		Assets:   &AssetRepository{db: db},
	}
}

// isUniqueViolation detects the store's uniqueness constraint error. PostgREST
// surfaces Postgres error 23505 in the response body.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}
