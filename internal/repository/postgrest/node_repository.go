package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/postgrest-go"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/repository"
)

// NodeRepository persists nodes one row at a time. Position writes surface
// the store's (project_id, order_index) uniqueness violations as conflicts
// so the positional-integrity engine can detect a broken shift.
type NodeRepository struct {
	db *postgrest.Client
}

func (r *NodeRepository) Create(ctx context.Context, node *flow.Node) error {
	_, _, err := r.db.From(tableNodes).
		Insert(toNodeRow(node), false, "", "minimal", "").
		ExecuteWithContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.NewConflict("node", node.ID, err.Error())
		}
		return fmt.Errorf("insert node: %w", err)
	}
	return nil
}

func (r *NodeRepository) CreateAll(ctx context.Context, nodes []*flow.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	rows := make([]nodeRow, len(nodes))
	for i, n := range nodes {
		rows[i] = toNodeRow(n)
	}
	_, _, err := r.db.From(tableNodes).
		Insert(rows, false, "", "minimal", "").
		ExecuteWithContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.NewConflict("node", nodes[0].ProjectID, err.Error())
		}
		return fmt.Errorf("insert nodes: %w", err)
	}
	return nil
}

func (r *NodeRepository) FindByID(ctx context.Context, projectID, nodeID string) (*flow.Node, error) {
	data, _, err := r.db.From(tableNodes).
		Select("*", "", false).
		Eq("id", nodeID).
		Eq("project_id", projectID).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select node: %w", err)
	}

	rows, err := decodeRows[nodeRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewNotFound("node", nodeID)
	}
	return rows[0].toDomain(), nil
}

func (r *NodeRepository) FindByProject(ctx context.Context, projectID string) ([]*flow.Node, error) {
	data, _, err := r.db.From(tableNodes).
		Select("*", "", false).
		Eq("project_id", projectID).
		Order("order_index", &postgrest.OrderOpts{Ascending: true}).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select nodes: %w", err)
	}

	rows, err := decodeRows[nodeRow](data)
	if err != nil {
		return nil, err
	}
	nodes := make([]*flow.Node, len(rows))
	for i, row := range rows {
		nodes[i] = row.toDomain()
	}
	return nodes, nil
}

func (r *NodeRepository) UpdateContent(ctx context.Context, projectID, nodeID string, content json.RawMessage) error {
	patch := map[string]any{
		"content":    content,
		"updated_at": time.Now().UTC(),
	}
	return r.updateOne(ctx, projectID, nodeID, patch)
}

func (r *NodeRepository) UpdatePosition(ctx context.Context, projectID, nodeID string, orderIndex int) error {
	patch := map[string]any{
		"order_index": orderIndex,
		"updated_at":  time.Now().UTC(),
	}
	return r.updateOne(ctx, projectID, nodeID, patch)
}

func (r *NodeRepository) updateOne(ctx context.Context, projectID, nodeID string, patch map[string]any) error {
	data, _, err := r.db.From(tableNodes).
		Update(patch, "representation", "").
		Eq("id", nodeID).
		Eq("project_id", projectID).
		ExecuteWithContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			if idx, ok := patch["order_index"].(int); ok {
				return repository.NewConflict("node", nodeID, "order_index "+strconv.Itoa(idx)+" already taken")
			}
			return repository.NewConflict("node", nodeID, err.Error())
		}
		return fmt.Errorf("update node: %w", err)
	}

	rows, err := decodeRows[nodeRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFound("node", nodeID)
	}
	return nil
}

func (r *NodeRepository) Delete(ctx context.Context, projectID, nodeID string) error {
	data, _, err := r.db.From(tableNodes).
		Delete("representation", "").
		Eq("id", nodeID).
		Eq("project_id", projectID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	rows, err := decodeRows[nodeRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFound("node", nodeID)
	}
	return nil
}

func (r *NodeRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, _, err := r.db.From(tableNodes).
		Delete("minimal", "").
		Eq("project_id", projectID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	return nil
}
