package flows

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/repository"
)

// Engine maintains the dense zero-based ordering invariant for a project's
// nodes. The store enforces uniqueness on (project_id, order_index) and only
// supports one-row-at-a-time updates, so every relayout runs in two phases:
// first every node that must move is parked at a temporary negative hold
// allocated below every currently stored position, then each is written to
// its final position. Holds cannot collide with any stored position, with
// each other, or with leftovers of an interrupted earlier shift, because
// they sit strictly below all of them; phase 2 writes cannot collide with
// unmoved rows, because the target layout is a bijection onto [0, count).
//
// A row failure mid-sequence is reported as a store failure with the
// re-fetch caveat; no automatic rollback is attempted. Re-issuing the same
// high-level operation from freshly read state converges to a valid dense
// ordering: rows stranded at negative holds are never at their target, so
// they are re-parked and carried to finals like any other moving row.
type Engine struct {
	nodes  repository.NodeRepository
	logger *zap.Logger
}

// NewEngine creates a positional-integrity engine over the node store.
func NewEngine(nodes repository.NodeRepository, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		nodes:  nodes,
		logger: logger.Named("ordering"),
	}
}

// InsertAt places node at position index, shifting every node at or above it
// up by one. Index must be within [0, count]. Positions are re-derived from
// array order, so a gap left by an earlier delete is compacted here as a
// side effect.
func (e *Engine) InsertAt(ctx context.Context, projectID string, node *flow.Node, index int) error {
	current, err := e.nodes.FindByProject(ctx, projectID)
	if err != nil {
		return apperrors.NewStoreFailure("failed to read nodes", err)
	}

	if index < 0 || index > len(current) {
		return apperrors.NewInvalidInput(fmt.Sprintf("insert index %d out of range [0, %d]", index, len(current)))
	}
	if len(current) >= flow.MaxFlowNodes {
		return apperrors.NewInvalidInput(fmt.Sprintf("flow already has the maximum of %d nodes", flow.MaxFlowNodes))
	}

	// Target layout: array order with one slot opened at index.
	targets := make([]int, len(current))
	for i := range current {
		if i < index {
			targets[i] = i
		} else {
			targets[i] = i + 1
		}
	}

	if err := e.relayout(ctx, projectID, current, targets); err != nil {
		return err
	}

	node.ProjectID = projectID
	node.OrderIndex = index
	if err := e.nodes.Create(ctx, node); err != nil {
		return apperrors.NewStoreFailure("failed to insert node; re-fetch before retrying", err)
	}
	return nil
}

// Reorder applies a complete new ordering supplied as node IDs. Every
// supplied ID must still exist and every existing node must be covered;
// otherwise the client is working from stale state and must refresh. No
// position is modified before the check passes.
func (e *Engine) Reorder(ctx context.Context, projectID string, orderedIDs []string) error {
	current, err := e.nodes.FindByProject(ctx, projectID)
	if err != nil {
		return apperrors.NewStoreFailure("failed to read nodes", err)
	}

	byID := make(map[string]*flow.Node, len(current))
	for _, n := range current {
		byID[n.ID] = n
	}

	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return apperrors.NewInvalidInput(fmt.Sprintf("node %s appears twice in the new ordering", id))
		}
		seen[id] = true
		if _, ok := byID[id]; !ok {
			return apperrors.NewStaleState(fmt.Sprintf("node %s no longer exists; refresh and try again", id))
		}
	}
	if len(orderedIDs) != len(current) {
		return apperrors.NewStaleState("the flow has changed since it was loaded; refresh and try again")
	}

	ordered := make([]*flow.Node, len(orderedIDs))
	targets := make([]int, len(orderedIDs))
	for i, id := range orderedIDs {
		ordered[i] = byID[id]
		targets[i] = i
	}

	return e.relayout(ctx, projectID, ordered, targets)
}

// relayout moves nodes[i] to targets[i] with the two-phase shift. Nodes
// already at their target are left untouched.
func (e *Engine) relayout(ctx context.Context, projectID string, nodes []*flow.Node, targets []int) error {
	var moving []*flow.Node
	var finals []int
	base := 0
	for i, n := range nodes {
		if n.OrderIndex < base {
			base = n.OrderIndex
		}
		if n.OrderIndex != targets[i] {
			moving = append(moving, n)
			finals = append(finals, targets[i])
		}
	}
	if len(moving) == 0 {
		return nil
	}

	// Phase 1: park every moving node at a fresh hold below every stored
	// position, including holds left behind by an interrupted earlier shift.
	// Those stranded rows are themselves in the moving set and get re-parked
	// here. Phase 2 must not start until this completes for all of them.
	for i, n := range moving {
		hold := base - 1 - i
		if err := e.nodes.UpdatePosition(ctx, projectID, n.ID, hold); err != nil {
			return apperrors.NewStoreFailure("position shift interrupted; re-fetch before retrying", err)
		}
	}

	// Phase 2: write final positions.
	for i, n := range moving {
		if err := e.nodes.UpdatePosition(ctx, projectID, n.ID, finals[i]); err != nil {
			return apperrors.NewStoreFailure("position shift interrupted; re-fetch before retrying", err)
		}
		n.OrderIndex = finals[i]
	}

	e.logger.Debug("relayout complete",
		zap.String("projectId", projectID),
		zap.Int("moved", len(moving)),
	)
	return nil
}
