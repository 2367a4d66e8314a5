package handler

import (
	"errors"
	"net/http"

	"revisor/internal/domain"
	"revisor/internal/httputil"

	"github.com/google/uuid"
)

// handleError converts domain errors to HTTP responses. Structured errors
// contribute RFC 7807 extension members so clients can react without parsing
// detail strings.
func handleError(w http.ResponseWriter, err error) {
	var (
		stateErr   *domain.InvalidStateError
		versionErr *domain.VersionConflictError
		patchErr   *domain.PatchConflictError
		httpErr    domain.HTTPError
	)

	switch {
	case errors.As(err, &stateErr):
		httputil.RespondErrorWithExtras(w, stateErr.StatusCode(), stateErr.Error(), map[string]interface{}{
			"request_id": stateErr.RequestID,
			"expected":   stateErr.Expected,
			"actual":     stateErr.Actual,
		})
	case errors.As(err, &versionErr):
		httputil.RespondErrorWithExtras(w, versionErr.StatusCode(), versionErr.Error(), map[string]interface{}{
			"document_id": versionErr.DocumentID,
			"version":     versionErr.Version,
			"attempts":    versionErr.Attempts,
		})
	case errors.As(err, &patchErr):
		httputil.RespondErrorWithExtras(w, patchErr.StatusCode(), patchErr.Error(), map[string]interface{}{
			"expected_fingerprint": patchErr.ExpectedFingerprint,
			"actual_fingerprint":   patchErr.ActualFingerprint,
		})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrTimeout):
		httputil.RespondError(w, http.StatusRequestTimeout, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// pathUUID extracts a path parameter and validates it as a UUID, writing a
// 400 for malformed IDs before they reach the database
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	if _, err := uuid.Parse(raw); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, name+" must be a valid UUID")
		return "", false
	}
	return raw, true
}

// requireUserID extracts the authenticated user ID from the request context.
// Writes a 401 and returns false if the middleware did not set one.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "user not authenticated")
		return "", false
	}
	return userID, true
}
