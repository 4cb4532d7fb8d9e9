package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"giftflow-backend/internal/service/flows"
	"giftflow-backend/internal/service/sessions"
)

// PlaybackHandler serves the anonymous viewer path: reading a published
// flow by slug and recording a playback session against it.
type PlaybackHandler struct {
	flows    *flows.Service
	sessions *sessions.Service
	logger   *zap.Logger
}

// NewPlaybackHandler creates a new playback handler.
func NewPlaybackHandler(flowService *flows.Service, sessionService *sessions.Service, logger *zap.Logger) *PlaybackHandler {
	return &PlaybackHandler{flows: flowService, sessions: sessionService, logger: logger}
}

// AnswerRequest is the body for POST /play/sessions/{sessionID}/answers.
type AnswerRequest struct {
	NodeID string          `json:"nodeId"`
	Answer json.RawMessage `json:"answer"`
}

// GetFlow handles GET /play/{slug}. The owner ID is never exposed on this
// path.
func (h *PlaybackHandler) GetFlow(w http.ResponseWriter, r *http.Request) {
	project, nodes, err := h.flows.GetPublished(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flow": map[string]interface{}{
			"title":       project.Title,
			"description": project.Description,
			"theme":       project.Theme,
		},
		"nodes": nodes,
	})
}

// StartSession handles POST /play/{slug}/sessions.
func (h *PlaybackHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Start(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"session": session})
}

// Answer handles POST /play/sessions/{sessionID}/answers.
func (h *PlaybackHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	session, err := h.sessions.Answer(r.Context(), chi.URLParam(r, "sessionID"), req.NodeID, req.Answer)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}

// CompleteSession handles POST /play/sessions/{sessionID}/complete.
func (h *PlaybackHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Complete(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"session": session})
}
