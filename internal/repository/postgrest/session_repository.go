package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/repository"
)

// SessionRepository persists anonymous playback sessions. A session is only
// ever written by its single recipient, so the append-only answer log is
// maintained with a read-modify-write.
type SessionRepository struct {
	db *postgrest.Client
}

func (r *SessionRepository) Create(ctx context.Context, session *flow.Session) error {
	row, err := toSessionRow(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, _, err = r.db.From(tableSessions).
		Insert(row, false, "", "minimal", "").
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, sessionID string) (*flow.Session, error) {
	data, _, err := r.db.From(tableSessions).
		Select("*", "", false).
		Eq("id", sessionID).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	rows, err := decodeRows[sessionRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewNotFound("session", sessionID)
	}
	return rows[0].toDomain()
}

func (r *SessionRepository) AppendAnswer(ctx context.Context, sessionID string, answer flow.Answer) error {
	session, err := r.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	answers := append(session.Answers, answer)
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	return r.patch(ctx, sessionID, map[string]any{"answers": json.RawMessage(raw)})
}

func (r *SessionRepository) Complete(ctx context.Context, sessionID string) error {
	now := time.Now().UTC()
	return r.patch(ctx, sessionID, map[string]any{
		"completed":    true,
		"completed_at": now,
	})
}

func (r *SessionRepository) patch(ctx context.Context, sessionID string, patch map[string]any) error {
	data, _, err := r.db.From(tableSessions).
		Update(patch, "representation", "").
		Eq("id", sessionID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, err := decodeRows[sessionRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFound("session", sessionID)
	}
	return nil
}

func (r *SessionRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, _, err := r.db.From(tableSessions).
		Delete("minimal", "").
		Eq("project_id", projectID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
