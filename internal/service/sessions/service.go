// Package sessions records anonymous playback of published flows: start,
// answer, complete. Answers form an append-only log keyed by node.
package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/observability"
	"giftflow-backend/internal/repository"
)

// maxAnswerBytes bounds a single raw answer payload. Anything a choice or
// text-input screen legitimately produces is far below this.
const maxAnswerBytes = 4096

// Service drives the anonymous playback path. No authentication is
// involved; the session ID returned by Start is the only handle.
type Service struct {
	projects repository.ProjectRepository
	nodes    repository.NodeRepository
	sessions repository.SessionRepository
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewService wires the playback session service.
func NewService(
	projects repository.ProjectRepository,
	nodes repository.NodeRepository,
	sessions repository.SessionRepository,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects: projects,
		nodes:    nodes,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.Named("sessions"),
	}
}

// Start opens a session against a published flow identified by share slug.
func (s *Service) Start(ctx context.Context, slug string) (*flow.Session, error) {
	project, err := s.projects.FindBySlug(ctx, slug)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("flow not found")
		}
		return nil, apperrors.NewStoreFailure("failed to read project", err)
	}

	session := &flow.Session{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Answers:   []flow.Answer{},
		StartedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewStoreFailure("failed to create session", err)
	}

	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	s.logger.Info("session started",
		zap.String("sessionId", session.ID),
		zap.String("projectId", project.ID),
	)
	return session, nil
}

// Answer appends one response to the session's log. The node must belong to
// the session's project and be an interactive screen.
func (s *Service) Answer(ctx context.Context, sessionID, nodeID string, raw json.RawMessage) (*flow.Session, error) {
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, apperrors.NewInvalidInput("answer must be valid JSON")
	}
	if len(raw) > maxAnswerBytes {
		return nil, apperrors.NewInvalidInput("answer payload too large")
	}

	session, err := s.findActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	node, err := s.nodes.FindByID(ctx, session.ProjectID, nodeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("node not found")
		}
		return nil, apperrors.NewStoreFailure("failed to read node", err)
	}
	if !node.Type.IsInteractive() {
		return nil, apperrors.NewInvalidInput("node does not accept answers")
	}

	answer := flow.Answer{
		NodeID:    nodeID,
		Answer:    raw,
		Timestamp: time.Now().UTC(),
	}
	if err := s.sessions.AppendAnswer(ctx, sessionID, answer); err != nil {
		return nil, apperrors.NewStoreFailure("failed to record answer", err)
	}

	session.Answers = append(session.Answers, answer)
	return session, nil
}

// Complete marks the session finished. Completing twice is a no-op.
func (s *Service) Complete(ctx context.Context, sessionID string) (*flow.Session, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return session, nil
	}

	if err := s.sessions.Complete(ctx, sessionID); err != nil {
		return nil, apperrors.NewStoreFailure("failed to complete session", err)
	}
	now := time.Now().UTC()
	session.Completed = true
	session.CompletedAt = &now
	return session, nil
}

// Get returns a session by ID, for a viewer resuming playback.
func (s *Service) Get(ctx context.Context, sessionID string) (*flow.Session, error) {
	return s.find(ctx, sessionID)
}

func (s *Service) find(ctx context.Context, sessionID string) (*flow.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("session not found")
		}
		return nil, apperrors.NewStoreFailure("failed to read session", err)
	}
	return session, nil
}

func (s *Service) findActive(ctx context.Context, sessionID string) (*flow.Session, error) {
	session, err := s.find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		return nil, apperrors.NewInvalidInput("session is already completed")
	}
	return session, nil
}
