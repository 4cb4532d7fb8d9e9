package flow

import (
	"encoding/json"
	"time"
)

// Project is a user-owned flow: title, theme, publication state, and an
// ordered set of nodes. Created atomically with its initial node set at
// generation time; deletion cascades to nodes and sessions.
type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Theme       Theme     `json:"theme"`
	Published   bool      `json:"published"`
	ShareSlug   string    `json:"shareSlug,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Node is one screen of a flow. Within a project, OrderIndex values are
// unique and, after any completed operation, form the contiguous range
// [0, count-1].
type Node struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"projectId"`
	Type       NodeType        `json:"type"`
	OrderIndex int             `json:"orderIndex"`
	Content    json.RawMessage `json:"content"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Answer is one recorded response in a playback session.
type Answer struct {
	NodeID    string          `json:"nodeId"`
	Answer    json.RawMessage `json:"answer"`
	Timestamp time.Time       `json:"timestamp"`
}

// Session is an anonymous playback record of a published flow. The answer
// log is append-only.
type Session struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Answers     []Answer   `json:"answers"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Asset is an uploaded file living in object storage. Assets are deleted
// independently of nodes; dangling references from node content are
// tolerated and rendered as absent media.
type Asset struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	ProjectID   string `json:"projectId,omitempty"`
	StorageRef  string `json:"storageRef"`
	FileName    string `json:"fileName"`
	FileSize    int64  `json:"fileSize"`
	MimeType    string `json:"mimeType"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AltText     string `json:"altText,omitempty"`
	Attribution string `json:"attribution,omitempty"`
}
