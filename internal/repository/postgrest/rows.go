package postgrest

import (
	"encoding/json"
	"time"

	"giftflow-backend/internal/domain/flow"
)

// Row representations translate the internal camelCase model to the store's
// snake_case columns.

type projectRow struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Theme       string    `json:"theme"`
	Published   bool      `json:"published"`
	ShareSlug   *string   `json:"share_slug,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toProjectRow(p *flow.Project) projectRow {
	row := projectRow{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Theme:       string(p.Theme),
		Published:   p.Published,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ShareSlug != "" {
		row.ShareSlug = &p.ShareSlug
	}
	return row
}

func (r projectRow) toDomain() *flow.Project {
	p := &flow.Project{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Theme:       flow.Theme(r.Theme),
		Published:   r.Published,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ShareSlug != nil {
		p.ShareSlug = *r.ShareSlug
	}
	return p
}

type nodeRow struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"project_id"`
	Type       string          `json:"type"`
	OrderIndex int             `json:"order_index"`
	Content    json.RawMessage `json:"content"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toNodeRow(n *flow.Node) nodeRow {
	return nodeRow{
		ID:         n.ID,
		ProjectID:  n.ProjectID,
		Type:       string(n.Type),
		OrderIndex: n.OrderIndex,
		Content:    n.Content,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (r nodeRow) toDomain() *flow.Node {
	return &flow.Node{
		ID:         r.ID,
		ProjectID:  r.ProjectID,
		Type:       flow.NodeType(r.Type),
		OrderIndex: r.OrderIndex,
		Content:    r.Content,
		UpdatedAt:  r.UpdatedAt,
	}
}

type sessionRow struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Answers     json.RawMessage `json:"answers"`
	Completed   bool            `json:"completed"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func toSessionRow(s *flow.Session) (sessionRow, error) {
	answers := s.Answers
	if answers == nil {
		answers = []flow.Answer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return sessionRow{}, err
	}
	return sessionRow{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		Answers:     raw,
		Completed:   s.Completed,
		StartedAt:   s.StartedAt,
		CompletedAt: s.CompletedAt,
	}, nil
}

func (r sessionRow) toDomain() (*flow.Session, error) {
	var answers []flow.Answer
	if len(r.Answers) > 0 {
		if err := json.Unmarshal(r.Answers, &answers); err != nil {
			return nil, err
		}
	}
	return &flow.Session{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Answers:     answers,
		Completed:   r.Completed,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}, nil
}

type assetRow struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	ProjectID   string `json:"project_id,omitempty"`
	StorageRef  string `json:"storage_ref"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	MimeType    string `json:"mime_type"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AltText     string `json:"alt_text,omitempty"`
	Attribution string `json:"attribution,omitempty"`
}

func toAssetRow(a *flow.Asset) assetRow {
	return assetRow{
		ID:          a.ID,
		OwnerID:     a.OwnerID,
		ProjectID:   a.ProjectID,
		StorageRef:  a.StorageRef,
		FileName:    a.FileName,
		FileSize:    a.FileSize,
		MimeType:    a.MimeType,
		Width:       a.Width,
		Height:      a.Height,
		AltText:     a.AltText,
		Attribution: a.Attribution,
	}
}

func (r assetRow) toDomain() *flow.Asset {
	return &flow.Asset{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		ProjectID:   r.ProjectID,
		StorageRef:  r.StorageRef,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		MimeType:    r.MimeType,
		Width:       r.Width,
		Height:      r.Height,
		AltText:     r.AltText,
		Attribution: r.Attribution,
	}
}
