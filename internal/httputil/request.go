package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"revisor/internal/config"
)

// ParseJSON decodes JSON from the request body into the given destination.
// It limits the request body size to prevent abuse and provides clear error messages.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// Limit request body (requires w for proper 413 response)
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	// DisallowUnknownFields is intentionally NOT used: the metadata and
	// context fields carry arbitrary caller-defined keys. Validation happens
	// downstream in domain-specific validators.

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
