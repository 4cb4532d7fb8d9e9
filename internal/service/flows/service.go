// Package flows is the application service for projects and their node
// sequences: generation, fine-grained editing, ordering, and publication.
package flows

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/observability"
	"giftflow-backend/internal/repository"
	"giftflow-backend/internal/service/generation"
	"giftflow-backend/internal/service/media"
)

// Service exposes the core operations to the surrounding application. Every
// mutation is scoped by the requesting owner; the only anonymous read path
// is GetPublished, keyed by share slug.
type Service struct {
	projects  repository.ProjectRepository
	nodes     repository.NodeRepository
	sessions  repository.SessionRepository
	generator *generation.Service
	resolver  *media.Resolver
	engine    *Engine
	metrics   *observability.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewService wires the flow application service.
func NewService(
	projects repository.ProjectRepository,
	nodes repository.NodeRepository,
	sessions repository.SessionRepository,
	generator *generation.Service,
	resolver *media.Resolver,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects:  projects,
		nodes:     nodes,
		sessions:  sessions,
		generator: generator,
		resolver:  resolver,
		engine:    NewEngine(nodes, logger),
		metrics:   metrics,
		tracer:    otel.Tracer("giftflow-backend/flows"),
		logger:    logger.Named("flows"),
	}
}

// GenerateFlow runs the full pipeline for a prompt: generation, media
// resolution, then atomic-looking persistence of the project and its node
// set at positions 0..N-1. If node insertion fails after the project row was
// created, the project row is deleted as a manual rollback.
func (s *Service) GenerateFlow(ctx context.Context, ownerID, prompt string) (*flow.Project, []*flow.Node, error) {
	ctx, span := s.tracer.Start(ctx, "flows.GenerateFlow")
	defer span.End()

	spec, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		if apperrors.IsGenerationFailed(err) && s.metrics != nil {
			s.metrics.GenerationFailures.Inc()
		}
		return nil, nil, err
	}

	spec = s.resolver.Resolve(ctx, spec)

	now := time.Now().UTC()
	project := &flow.Project{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Title:       spec.Title,
		Description: spec.Description,
		Theme:       spec.Theme,
		Published:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	span.SetAttributes(
		attribute.String("project.id", project.ID),
		attribute.Int("flow.nodes", len(spec.Nodes)),
	)

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, nil, apperrors.NewStoreFailure("failed to create project", err)
	}

	nodes := make([]*flow.Node, len(spec.Nodes))
	for i, n := range spec.Nodes {
		nodes[i] = &flow.Node{
			ID:         uuid.New().String(),
			ProjectID:  project.ID,
			Type:       n.Type,
			OrderIndex: i,
			Content:    n.Content,
			UpdatedAt:  now,
		}
	}
	if err := s.nodes.CreateAll(ctx, nodes); err != nil {
		// The store gives this layer no multi-row transaction; roll the
		// project row back by hand so no half-created flow survives.
		if delErr := s.projects.Delete(ctx, ownerID, project.ID); delErr != nil {
			s.logger.Error("rollback of half-created project failed",
				zap.String("projectId", project.ID),
				zap.Error(delErr),
			)
		}
		return nil, nil, apperrors.NewStoreFailure("failed to create flow nodes", err)
	}

	if s.metrics != nil {
		s.metrics.FlowsGenerated.Inc()
	}
	s.logger.Info("flow created",
		zap.String("projectId", project.ID),
		zap.Int("nodes", len(nodes)),
	)
	return project, nodes, nil
}

// GetProject returns an owned project and its nodes in display order.
func (s *Service) GetProject(ctx context.Context, ownerID, projectID string) (*flow.Project, []*flow.Node, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, nil, err
	}
	nodes, err := s.nodes.FindByProject(ctx, projectID)
	if err != nil {
		return nil, nil, apperrors.NewStoreFailure("failed to read nodes", err)
	}
	return project, nodes, nil
}

// ListProjects returns the owner's projects, most recently updated first.
func (s *Service) ListProjects(ctx context.Context, ownerID string) ([]*flow.Project, error) {
	projects, err := s.projects.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewStoreFailure("failed to list projects", err)
	}
	return projects, nil
}

// ProjectUpdates carries the optional fields of a project edit.
type ProjectUpdates struct {
	Title       *string
	Description *string
	Theme       *flow.Theme
}

// UpdateProject applies title/description/theme edits.
func (s *Service) UpdateProject(ctx context.Context, ownerID, projectID string, updates ProjectUpdates) (*flow.Project, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		title := strings.TrimSpace(*updates.Title)
		if title == "" || len(title) > 200 {
			return nil, apperrors.NewInvalidInput("title must be between 1 and 200 characters")
		}
		project.Title = title
	}
	if updates.Description != nil {
		if len(*updates.Description) > 1000 {
			return nil, apperrors.NewInvalidInput("description must be at most 1000 characters")
		}
		project.Description = *updates.Description
	}
	if updates.Theme != nil {
		if !flow.IsValidTheme(*updates.Theme) {
			return nil, apperrors.NewInvalidInput("unknown theme")
		}
		project.Theme = *updates.Theme
	}

	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, s.mapStoreError(err)
	}
	return project, nil
}

// DeleteProject removes a project with its nodes and sessions.
func (s *Service) DeleteProject(ctx context.Context, ownerID, projectID string) error {
	if _, err := s.findOwned(ctx, ownerID, projectID); err != nil {
		return err
	}

	if err := s.nodes.DeleteByProject(ctx, projectID); err != nil {
		return apperrors.NewStoreFailure("failed to delete nodes", err)
	}
	if err := s.sessions.DeleteByProject(ctx, projectID); err != nil {
		return apperrors.NewStoreFailure("failed to delete sessions", err)
	}
	if err := s.projects.Delete(ctx, ownerID, projectID); err != nil {
		return s.mapStoreError(err)
	}
	return nil
}

// Publish marks the project published under a fresh unguessable slug.
func (s *Service) Publish(ctx context.Context, ownerID, projectID string) (*flow.Project, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	if !project.Published {
		project.Published = true
		project.ShareSlug = newShareSlug()
	}
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, s.mapStoreError(err)
	}
	return project, nil
}

// Unpublish withdraws the project and clears its slug; old share links die.
func (s *Service) Unpublish(ctx context.Context, ownerID, projectID string) (*flow.Project, error) {
	project, err := s.findOwned(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	project.Published = false
	project.ShareSlug = ""
	project.UpdatedAt = time.Now().UTC()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, s.mapStoreError(err)
	}
	return project, nil
}

// GetPublished is the anonymous playback read: a published project and its
// nodes, matched by the opaque share slug.
func (s *Service) GetPublished(ctx context.Context, slug string) (*flow.Project, []*flow.Node, error) {
	project, err := s.projects.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound("flow not found")
		}
		return nil, nil, apperrors.NewStoreFailure("failed to read project", err)
	}
	nodes, err := s.nodes.FindByProject(ctx, project.ID)
	if err != nil {
		return nil, nil, apperrors.NewStoreFailure("failed to read nodes", err)
	}
	return project, nodes, nil
}

// InsertNode validates content and inserts a new node at the given index,
// or appends when atIndex is nil.
func (s *Service) InsertNode(ctx context.Context, ownerID, projectID string, nodeType flow.NodeType, content json.RawMessage, atIndex *int) (*flow.Node, error) {
	if _, err := s.findOwned(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	canonical, err := flow.ValidateContent(nodeType, content)
	if err != nil {
		return nil, err
	}

	current, err := s.nodes.FindByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewStoreFailure("failed to read nodes", err)
	}
	index := len(current)
	if atIndex != nil {
		index = *atIndex
	}

	node := &flow.Node{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Type:      nodeType,
		Content:   canonical,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.engine.InsertAt(ctx, projectID, node, index); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.NodesInserted.Inc()
	}
	return node, nil
}

// UpdateNodeContent validates and writes new content for one node.
func (s *Service) UpdateNodeContent(ctx context.Context, ownerID, projectID, nodeID string, content json.RawMessage) (*flow.Node, error) {
	if _, err := s.findOwned(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	node, err := s.nodes.FindByID(ctx, projectID, nodeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("node not found")
		}
		return nil, apperrors.NewStoreFailure("failed to read node", err)
	}

	canonical, err := flow.ValidateContent(node.Type, content)
	if err != nil {
		return nil, err
	}
	if err := s.nodes.UpdateContent(ctx, projectID, nodeID, canonical); err != nil {
		return nil, apperrors.NewStoreFailure("failed to update node", err)
	}

	node.Content = canonical
	node.UpdatedAt = time.Now().UTC()
	return node, nil
}

// DeleteNode removes one node. Remaining positions are left as they are;
// the gap is transient and self-heals on the next insert or reorder, which
// derive positions from array order rather than stored values.
func (s *Service) DeleteNode(ctx context.Context, ownerID, projectID, nodeID string) error {
	if _, err := s.findOwned(ctx, ownerID, projectID); err != nil {
		return err
	}

	if err := s.nodes.Delete(ctx, projectID, nodeID); err != nil {
		if repository.IsNotFound(err) {
			return apperrors.NewNotFound("node not found")
		}
		return apperrors.NewStoreFailure("failed to delete node", err)
	}

	if s.metrics != nil {
		s.metrics.NodesDeleted.Inc()
	}
	return nil
}

// ReorderNodes applies a complete new ordering supplied by the client.
func (s *Service) ReorderNodes(ctx context.Context, ownerID, projectID string, orderedIDs []string) error {
	ctx, span := s.tracer.Start(ctx, "flows.ReorderNodes",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	if _, err := s.findOwned(ctx, ownerID, projectID); err != nil {
		return err
	}

	err := s.engine.Reorder(ctx, projectID, orderedIDs)
	if s.metrics != nil {
		status := "ok"
		switch {
		case apperrors.IsStaleState(err):
			status = "stale"
		case err != nil:
			status = "error"
		}
		s.metrics.ReorderOps.WithLabelValues(status).Inc()
	}
	return err
}

// findOwned resolves a project by ID under the requesting owner's scope.
func (s *Service) findOwned(ctx context.Context, ownerID, projectID string) (*flow.Project, error) {
	project, err := s.projects.FindByID(ctx, ownerID, projectID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return project, nil
}

func (s *Service) mapStoreError(err error) error {
	if repository.IsNotFound(err) {
		// Not distinguishing "exists but not yours" from "does not exist"
		// keeps project IDs unenumerable.
		return apperrors.NewNotFound("project not found")
	}
	return apperrors.NewStoreFailure("store operation failed", err)
}

// newShareSlug mints an unguessable, globally unique share slug.
func newShareSlug() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
