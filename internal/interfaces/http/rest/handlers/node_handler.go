package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	apperrors "giftflow-backend/internal/errors"
	"giftflow-backend/internal/interfaces/http/rest/middleware"
	"giftflow-backend/internal/service/flows"
)

// NodeHandler handles node-level editing within a flow.
type NodeHandler struct {
	flows  *flows.Service
	logger *zap.Logger
}

// NewNodeHandler creates a new node handler.
func NewNodeHandler(flowService *flows.Service, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{flows: flowService, logger: logger}
}

// InsertNodeRequest is the body for POST /flows/{projectID}/nodes. A nil
// Index appends.
type InsertNodeRequest struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
	Index   *int            `json:"index,omitempty"`
}

// UpdateNodeRequest is the body for PUT /flows/{projectID}/nodes/{nodeID}.
type UpdateNodeRequest struct {
	Content json.RawMessage `json:"content"`
}

// ReorderRequest is the body for PUT /flows/{projectID}/nodes/order. The
// node IDs must be a complete permutation of the flow's current nodes.
type ReorderRequest struct {
	NodeIDs []string `json:"nodeIds"`
}

// Insert handles POST /flows/{projectID}/nodes.
func (h *NodeHandler) Insert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req InsertNodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	nodeType := flow.NodeType(req.Type)
	if !flow.IsValidNodeType(nodeType) {
		respondAppError(w, h.logger, apperrors.NewInvalidInput("unknown node type"))
		return
	}

	node, err := h.flows.InsertNode(r.Context(), userID, chi.URLParam(r, "projectID"), nodeType, req.Content, req.Index)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"node": node})
}

// Update handles PUT /flows/{projectID}/nodes/{nodeID}.
func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateNodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	node, err := h.flows.UpdateNodeContent(r.Context(), userID, chi.URLParam(r, "projectID"), chi.URLParam(r, "nodeID"), req.Content)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"node": node})
}

// Delete handles DELETE /flows/{projectID}/nodes/{nodeID}.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.flows.DeleteNode(r.Context(), userID, chi.URLParam(r, "projectID"), chi.URLParam(r, "nodeID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Reorder handles PUT /flows/{projectID}/nodes/order.
func (h *NodeHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReorderRequest
	if err := decodeBody(r, &req); err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	if err := h.flows.ReorderNodes(r.Context(), userID, chi.URLParam(r, "projectID"), req.NodeIDs); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
