package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "giftflow-backend/internal/errors"
)

func TestRespondAppError(t *testing.T) {
	cases := []struct {
		name         string
		err          error
		wantStatus   int
		wantRefresh  bool
		wantAttempts int
	}{
		{
			name:       "invalid input maps to 400",
			err:        apperrors.NewInvalidInput("prompt must be between 10 and 2000 characters"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found maps to 404",
			err:        apperrors.NewNotFound("project not found"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:        "stale state maps to 409 with refresh hint",
			err:         apperrors.NewStaleState("the flow has changed since it was loaded; refresh and try again"),
			wantStatus:  http.StatusConflict,
			wantRefresh: true,
		},
		{
			name:         "generation exhaustion maps to 502 with attempt count",
			err:          apperrors.NewGenerationFailed("flow generation failed", 3, errors.New("upstream")),
			wantStatus:   http.StatusBadGateway,
			wantAttempts: 3,
		},
		{
			name:        "store failure maps to 500 with refresh hint",
			err:         apperrors.NewStoreFailure("position shift interrupted; re-fetch before retrying", errors.New("conflict")),
			wantStatus:  http.StatusInternalServerError,
			wantRefresh: true,
		},
		{
			name:       "plain errors map to 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			respondAppError(w, zap.NewNop(), tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tc.wantStatus, body.Code)
			assert.Equal(t, tc.wantRefresh, body.NeedsRefresh)
			assert.Equal(t, tc.wantAttempts, body.Attempts)
		})
	}

	t.Run("should hide internal details for plain errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		respondAppError(w, zap.NewNop(), errors.New("pq: connection reset"))

		var body errorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Internal server error", body.Message)
	})
}
