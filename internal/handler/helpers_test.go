package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"revisor/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("%w: title is required", domain.ErrValidation),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not found",
			err:        fmt.Errorf("document x: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unauthorized",
			err:        domain.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "timeout",
			err:        fmt.Errorf("create version: %w", domain.ErrTimeout),
			wantStatus: http.StatusRequestTimeout,
		},
		{
			name:       "invalid state",
			err:        &domain.InvalidStateError{RequestID: "r1", Expected: "PROCESSING", Actual: "COMPLETED"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "version conflict",
			err:        &domain.VersionConflictError{DocumentID: "d1", Version: 4, Attempts: 6},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "patch conflict",
			err:        &domain.PatchConflictError{ExpectedFingerprint: "aaa", ActualFingerprint: "bbb"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown error hides detail",
			err:        errors.New("pq: connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.EqualValues(t, tt.wantStatus, body["status"])
		})
	}
}

func TestHandleErrorExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	handleError(rec, &domain.InvalidStateError{RequestID: "r1", Expected: "PROCESSING", Actual: "CANCELLED"})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "r1", body["request_id"])
	assert.Equal(t, "PROCESSING", body["expected"])
	assert.Equal(t, "CANCELLED", body["actual"])

	rec = httptest.NewRecorder()
	handleError(rec, &domain.VersionConflictError{DocumentID: "d1", Version: 7, Attempts: 6})

	body = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "d1", body["document_id"])
	assert.EqualValues(t, 7, body["version"])
}

func TestPathUUID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /things/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathUUID(w, r, "id")
		if !ok {
			return
		}
		w.Write([]byte(id))
	})

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/7c9e6679-7425-40de-944b-e07fc1f90ae7", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "7c9e6679-7425-40de-944b-e07fc1f90ae7", rec.Body.String())
	})

	t.Run("malformed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "must be a valid UUID")
	})
}

func TestRequireUserID(t *testing.T) {
	// Without the auth middleware having run, the handler refuses the request
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/documents/x", nil)

	_, ok := requireUserID(rec, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
