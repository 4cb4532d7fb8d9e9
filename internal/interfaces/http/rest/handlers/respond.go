// Package handlers implements the REST endpoints for flows, nodes, playback
// sessions, and assets.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "giftflow-backend/internal/errors"
)

type errorResponse struct {
	Error        bool   `json:"error"`
	Message      string `json:"message"`
	Code         int    `json:"code"`
	NeedsRefresh bool   `json:"needsRefresh,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: true, Message: message, Code: status})
}

// respondAppError maps application error types onto HTTP status codes and
// carries the refresh/attempt hints through to the client.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		switch appErr.Type {
		case apperrors.ErrorTypeInvalidInput:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrorTypeStaleState:
			status = http.StatusConflict
		case apperrors.ErrorTypeGenerationFailed:
			status = http.StatusBadGateway
		case apperrors.ErrorTypeStoreFailure:
			status = http.StatusInternalServerError
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}

	respondJSON(w, status, errorResponse{
		Error:        true,
		Message:      message,
		Code:         status,
		NeedsRefresh: apperrors.NeedsRefresh(err),
		Attempts:     apperrors.Attempts(err),
	})
}

func decodeBody(r *http.Request, target interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return apperrors.NewInvalidInput("invalid request body: " + err.Error())
	}
	return nil
}
