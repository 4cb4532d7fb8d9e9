package postgrest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/repository"
)

// ProjectRepository persists projects, scoping every read and write by the
// project's owner except the published-read path keyed by share slug.
type ProjectRepository struct {
	db *postgrest.Client
}

func (r *ProjectRepository) Create(ctx context.Context, project *flow.Project) error {
	_, _, err := r.db.From(tableProjects).
		Insert(toProjectRow(project), false, "", "minimal", "").
		ExecuteWithContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.NewConflict("project", project.ID, err.Error())
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, ownerID, projectID string) (*flow.Project, error) {
	data, _, err := r.db.From(tableProjects).
		Select("*", "", false).
		Eq("id", projectID).
		Eq("owner_id", ownerID).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select project: %w", err)
	}

	rows, err := decodeRows[projectRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewNotFoundWithOwner("project", projectID, ownerID)
	}
	return rows[0].toDomain(), nil
}

func (r *ProjectRepository) FindByOwner(ctx context.Context, ownerID string) ([]*flow.Project, error) {
	data, _, err := r.db.From(tableProjects).
		Select("*", "", false).
		Eq("owner_id", ownerID).
		Order("updated_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}

	rows, err := decodeRows[projectRow](data)
	if err != nil {
		return nil, err
	}
	projects := make([]*flow.Project, len(rows))
	for i, row := range rows {
		projects[i] = row.toDomain()
	}
	return projects, nil
}

func (r *ProjectRepository) FindBySlug(ctx context.Context, slug string) (*flow.Project, error) {
	data, _, err := r.db.From(tableProjects).
		Select("*", "", false).
		Eq("share_slug", slug).
		Eq("published", "true").
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select project by slug: %w", err)
	}

	rows, err := decodeRows[projectRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewNotFound("project", slug)
	}
	return rows[0].toDomain(), nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *flow.Project) error {
	// share_slug must be written explicitly so unpublish can null it out.
	var slug any
	if project.ShareSlug != "" {
		slug = project.ShareSlug
	}
	patch := map[string]any{
		"title":       project.Title,
		"description": project.Description,
		"theme":       string(project.Theme),
		"published":   project.Published,
		"share_slug":  slug,
		"updated_at":  project.UpdatedAt,
	}

	data, _, err := r.db.From(tableProjects).
		Update(patch, "representation", "").
		Eq("id", project.ID).
		Eq("owner_id", project.OwnerID).
		ExecuteWithContext(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.NewConflict("project", project.ID, err.Error())
		}
		return fmt.Errorf("update project: %w", err)
	}

	rows, err := decodeRows[projectRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFoundWithOwner("project", project.ID, project.OwnerID)
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, ownerID, projectID string) error {
	data, _, err := r.db.From(tableProjects).
		Delete("representation", "").
		Eq("id", projectID).
		Eq("owner_id", ownerID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	rows, err := decodeRows[projectRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFoundWithOwner("project", projectID, ownerID)
	}
	return nil
}

// decodeRows unmarshals a PostgREST response body into row structs.
func decodeRows[T any](data []byte) ([]T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}
