package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/interfaces/http/rest/middleware"
	"giftflow-backend/internal/service/assets"
)

// AssetHandler handles multipart uploads and asset metadata.
type AssetHandler struct {
	assets *assets.Service
	logger *zap.Logger
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assetService *assets.Service, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{assets: assetService, logger: logger}
}

type assetResponse struct {
	Asset *flow.Asset `json:"asset"`
	URL   string      `json:"url"`
}

// Upload handles POST /assets as a multipart form with a "file" part and
// optional "projectId" and "altText" fields.
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(assets.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	asset, url, err := h.assets.Upload(r.Context(), userID, assets.UploadInput{
		ProjectID: r.FormValue("projectId"),
		FileName:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Size:      header.Size,
		Body:      file,
		AltText:   r.FormValue("altText"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, assetResponse{Asset: asset, URL: url})
}

// Get handles GET /assets/{assetID}.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	asset, url, err := h.assets.Get(r.Context(), userID, chi.URLParam(r, "assetID"))
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, assetResponse{Asset: asset, URL: url})
}

// Delete handles DELETE /assets/{assetID}.
func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.assets.Delete(r.Context(), userID, chi.URLParam(r, "assetID")); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
