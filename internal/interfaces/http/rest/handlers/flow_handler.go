package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/interfaces/http/rest/middleware"
	"giftflow-backend/internal/service/flows"
)

// FlowHandler handles project-level requests: generation, CRUD, and
// publication.
type FlowHandler struct {
	flows  *flows.Service
	logger *zap.Logger
}

// NewFlowHandler creates a new flow handler.
func NewFlowHandler(flowService *flows.Service, logger *zap.Logger) *FlowHandler {
	return &FlowHandler{flows: flowService, logger: logger}
}

// GenerateRequest is the body for POST /flows.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// UpdateFlowRequest is the body for PATCH /flows/{projectID}.
type UpdateFlowRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Theme       *string `json:"theme,omitempty"`
}

// FlowResponse is a project together with its ordered nodes.
type FlowResponse struct {
	Project *flow.Project `json:"project"`
	Nodes   []*flow.Node  `json:"nodes"`
}

// Generate handles POST /flows.
func (h *FlowHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	project, nodes, err := h.flows.GenerateFlow(r.Context(), userID, req.Prompt)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, FlowResponse{Project: project, Nodes: nodes})
}

// List handles GET /flows.
func (h *FlowHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	projects, err := h.flows.ListProjects(r.Context(), userID)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if projects == nil {
		projects = []*flow.Project{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// Get handles GET /flows/{projectID}.
func (h *FlowHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	project, nodes, err := h.flows.GetProject(r.Context(), userID, chi.URLParam(r, "projectID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, FlowResponse{Project: project, Nodes: nodes})
}

// Update handles PATCH /flows/{projectID}.
func (h *FlowHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateFlowRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	updates := flows.ProjectUpdates{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Theme != nil {
		theme := flow.Theme(*req.Theme)
		updates.Theme = &theme
	}

	project, err := h.flows.UpdateProject(r.Context(), userID, chi.URLParam(r, "projectID"), updates)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

// Delete handles DELETE /flows/{projectID}.
func (h *FlowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.flows.DeleteProject(r.Context(), userID, chi.URLParam(r, "projectID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Publish handles POST /flows/{projectID}/publish.
func (h *FlowHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	project, err := h.flows.Publish(r.Context(), userID, chi.URLParam(r, "projectID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}

// Unpublish handles POST /flows/{projectID}/unpublish.
func (h *FlowHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	project, err := h.flows.Unpublish(r.Context(), userID, chi.URLParam(r, "projectID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"project": project})
}
