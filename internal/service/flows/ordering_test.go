package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/repository"
)

// fakeNodeRepo is an in-memory node store that enforces the same uniqueness
// constraint on (projectID, orderIndex) as the real row store, including for
// negative positions. Every write goes through that check, so a shift
// sequence that would collide in production fails here too.
type fakeNodeRepo struct {
	nodes map[string]*flow.Node // by node ID

	updateCalls  int
	failOnCall   int // 1-based UpdatePosition call number to fail on; 0 disables
	createAllErr error
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*flow.Node)}
}

func (f *fakeNodeRepo) positionTaken(projectID string, position int, excludeID string) bool {
	for _, n := range f.nodes {
		if n.ProjectID == projectID && n.OrderIndex == position && n.ID != excludeID {
			return true
		}
	}
	return false
}

func (f *fakeNodeRepo) Create(ctx context.Context, node *flow.Node) error {
	if f.positionTaken(node.ProjectID, node.OrderIndex, node.ID) {
		return repository.NewConflict("node", node.ID, fmt.Sprintf("order_index %d already taken", node.OrderIndex))
	}
	copied := *node
	f.nodes[node.ID] = &copied
	return nil
}

func (f *fakeNodeRepo) CreateAll(ctx context.Context, nodes []*flow.Node) error {
	if f.createAllErr != nil {
		return f.createAllErr
	}
	for _, n := range nodes {
		if err := f.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNodeRepo) FindByID(ctx context.Context, projectID, nodeID string) (*flow.Node, error) {
	n, ok := f.nodes[nodeID]
	if !ok || n.ProjectID != projectID {
		return nil, repository.NewNotFound("node", nodeID)
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNodeRepo) FindByProject(ctx context.Context, projectID string) ([]*flow.Node, error) {
	var out []*flow.Node
	for _, n := range f.nodes {
		if n.ProjectID == projectID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (f *fakeNodeRepo) UpdateContent(ctx context.Context, projectID, nodeID string, content json.RawMessage) error {
	n, ok := f.nodes[nodeID]
	if !ok || n.ProjectID != projectID {
		return repository.NewNotFound("node", nodeID)
	}
	n.Content = content
	return nil
}

func (f *fakeNodeRepo) UpdatePosition(ctx context.Context, projectID, nodeID string, orderIndex int) error {
	f.updateCalls++
	if f.failOnCall > 0 && f.updateCalls == f.failOnCall {
		return errors.New("injected store failure")
	}
	n, ok := f.nodes[nodeID]
	if !ok || n.ProjectID != projectID {
		return repository.NewNotFound("node", nodeID)
	}
	if f.positionTaken(projectID, orderIndex, nodeID) {
		return repository.NewConflict("node", nodeID, fmt.Sprintf("order_index %d already taken", orderIndex))
	}
	n.OrderIndex = orderIndex
	return nil
}

func (f *fakeNodeRepo) Delete(ctx context.Context, projectID, nodeID string) error {
	n, ok := f.nodes[nodeID]
	if !ok || n.ProjectID != projectID {
		return repository.NewNotFound("node", nodeID)
	}
	delete(f.nodes, nodeID)
	return nil
}

func (f *fakeNodeRepo) DeleteByProject(ctx context.Context, projectID string) error {
	for id, n := range f.nodes {
		if n.ProjectID == projectID {
			delete(f.nodes, id)
		}
	}
	return nil
}

func seedNodes(t *testing.T, repo *fakeNodeRepo, projectID string, count int) []string {
	t.Helper()
	ids := make([]string, count)
	for i := 0; i < count; i++ {
		id := fmt.Sprintf("node-%d", i)
		ids[i] = id
		require.NoError(t, repo.Create(context.Background(), &flow.Node{
			ID:         id,
			ProjectID:  projectID,
			Type:       flow.NodeTypeTextInput,
			OrderIndex: i,
			Content:    json.RawMessage(`{}`),
		}))
	}
	return ids
}

func assertDense(t *testing.T, repo *fakeNodeRepo, projectID string, count int) []*flow.Node {
	t.Helper()
	nodes, err := repo.FindByProject(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, nodes, count)
	for i, n := range nodes {
		assert.Equal(t, i, n.OrderIndex, "position %d should be held by exactly one node", i)
	}
	return nodes
}

func TestEngineInsertAt(t *testing.T) {
	ctx := context.Background()

	t.Run("Should shift subsequent nodes up when inserting in the middle", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 4)
		engine := NewEngine(repo, nil)

		newNode := &flow.Node{ID: "new", Type: flow.NodeTypeTextInput, Content: json.RawMessage(`{}`)}
		require.NoError(t, engine.InsertAt(ctx, "p1", newNode, 1))

		nodes := assertDense(t, repo, "p1", 5)
		assert.Equal(t, ids[0], nodes[0].ID)
		assert.Equal(t, "new", nodes[1].ID)
		assert.Equal(t, ids[1], nodes[2].ID)
		assert.Equal(t, ids[3], nodes[4].ID)
		assert.Equal(t, 1, newNode.OrderIndex)
	})

	t.Run("Should append without moving anything", func(t *testing.T) {
		repo := newFakeNodeRepo()
		seedNodes(t, repo, "p1", 3)
		engine := NewEngine(repo, nil)

		require.NoError(t, engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 3))

		assertDense(t, repo, "p1", 4)
		assert.Zero(t, repo.updateCalls, "appending must not reposition existing nodes")
	})

	t.Run("Should insert at the head", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 3)
		engine := NewEngine(repo, nil)

		require.NoError(t, engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 0))

		nodes := assertDense(t, repo, "p1", 4)
		assert.Equal(t, "new", nodes[0].ID)
		assert.Equal(t, ids[0], nodes[1].ID)
	})

	t.Run("Should compact a deletion gap as part of the shift", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 5)
		engine := NewEngine(repo, nil)

		// Leave a gap at position 2.
		require.NoError(t, repo.Delete(ctx, "p1", ids[2]))

		require.NoError(t, engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 0))

		nodes := assertDense(t, repo, "p1", 5)
		assert.Equal(t, "new", nodes[0].ID)
		assert.Equal(t, ids[4], nodes[4].ID)
	})

	t.Run("Should reject an out of range index", func(t *testing.T) {
		repo := newFakeNodeRepo()
		seedNodes(t, repo, "p1", 3)
		engine := NewEngine(repo, nil)

		err := engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 4)
		assert.True(t, apperrors.IsInvalidInput(err))

		err = engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, -1)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should reject inserting into a full flow", func(t *testing.T) {
		repo := newFakeNodeRepo()
		seedNodes(t, repo, "p1", flow.MaxFlowNodes)
		engine := NewEngine(repo, nil)

		err := engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 0)
		assert.True(t, apperrors.IsInvalidInput(err))
	})

	t.Run("Should insert into an empty flow", func(t *testing.T) {
		repo := newFakeNodeRepo()
		engine := NewEngine(repo, nil)

		require.NoError(t, engine.InsertAt(ctx, "p1", &flow.Node{ID: "only"}, 0))
		assertDense(t, repo, "p1", 1)
	})
}

func TestEngineReorder(t *testing.T) {
	ctx := context.Background()

	t.Run("Should apply a full permutation without position collisions", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 5)
		engine := NewEngine(repo, nil)

		newOrder := []string{ids[4], ids[2], ids[0], ids[3], ids[1]}
		require.NoError(t, engine.Reorder(ctx, "p1", newOrder))

		nodes := assertDense(t, repo, "p1", 5)
		for i, n := range nodes {
			assert.Equal(t, newOrder[i], n.ID)
		}
	})

	t.Run("Should reverse the flow", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 6)
		engine := NewEngine(repo, nil)

		reversed := make([]string, len(ids))
		for i, id := range ids {
			reversed[len(ids)-1-i] = id
		}
		require.NoError(t, engine.Reorder(ctx, "p1", reversed))

		nodes := assertDense(t, repo, "p1", 6)
		assert.Equal(t, ids[5], nodes[0].ID)
		assert.Equal(t, ids[0], nodes[5].ID)
	})

	t.Run("Should not touch the store when the order is unchanged", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 4)
		engine := NewEngine(repo, nil)

		require.NoError(t, engine.Reorder(ctx, "p1", ids))
		assert.Zero(t, repo.updateCalls)
	})

	t.Run("Should compact gaps left by deletion", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 5)
		engine := NewEngine(repo, nil)

		require.NoError(t, repo.Delete(ctx, "p1", ids[1]))

		remaining := []string{ids[0], ids[2], ids[3], ids[4]}
		require.NoError(t, engine.Reorder(ctx, "p1", remaining))

		assertDense(t, repo, "p1", 4)
	})

	t.Run("Should reject a duplicate node ID", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 3)
		engine := NewEngine(repo, nil)

		err := engine.Reorder(ctx, "p1", []string{ids[0], ids[1], ids[1]})
		assert.True(t, apperrors.IsInvalidInput(err))
		assert.Zero(t, repo.updateCalls, "no position may change before validation passes")
	})

	t.Run("Should report stale state for an unknown node ID", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 3)
		engine := NewEngine(repo, nil)

		err := engine.Reorder(ctx, "p1", []string{ids[0], ids[1], "ghost"})
		assert.True(t, apperrors.IsStaleState(err))
		assert.True(t, apperrors.NeedsRefresh(err))
		assert.Zero(t, repo.updateCalls)
	})

	t.Run("Should report stale state when nodes are missing from the ordering", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 4)
		engine := NewEngine(repo, nil)

		err := engine.Reorder(ctx, "p1", ids[:3])
		assert.True(t, apperrors.IsStaleState(err))
	})

	t.Run("Should surface a mid-shift failure and converge on retry", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 4)
		engine := NewEngine(repo, nil)

		newOrder := []string{ids[3], ids[2], ids[1], ids[0]}

		// Fail partway through phase 2: all four park, two land.
		repo.failOnCall = 7
		err := engine.Reorder(ctx, "p1", newOrder)
		require.Error(t, err)
		assert.True(t, apperrors.IsStoreFailure(err))
		assert.True(t, apperrors.NeedsRefresh(err))

		// The same operation from fresh state reaches the target layout.
		repo.failOnCall = 0
		require.NoError(t, engine.Reorder(ctx, "p1", newOrder))

		nodes := assertDense(t, repo, "p1", 4)
		for i, n := range nodes {
			assert.Equal(t, newOrder[i], n.ID)
		}
	})

	t.Run("Should converge when an insert follows an interrupted shift", func(t *testing.T) {
		repo := newFakeNodeRepo()
		ids := seedNodes(t, repo, "p1", 4)
		engine := NewEngine(repo, nil)

		// Interrupt phase 2 after one final lands: one row occupies a valid
		// position while the rest are stranded at negative holds.
		repo.failOnCall = 6
		err := engine.Reorder(ctx, "p1", []string{ids[3], ids[2], ids[1], ids[0]})
		require.Error(t, err)
		assert.True(t, apperrors.IsStoreFailure(err))

		repo.failOnCall = 0
		require.NoError(t, engine.InsertAt(ctx, "p1", &flow.Node{ID: "new"}, 0))

		nodes := assertDense(t, repo, "p1", 5)
		assert.Equal(t, "new", nodes[0].ID)
	})
}
