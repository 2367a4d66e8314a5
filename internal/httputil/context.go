package httputil

import (
	"context"
	"net/http"
)

// Unexported key type so nothing outside this package can collide with it.
type contextKey struct{ name string }

var userIDKey = &contextKey{"user-id"}

// WithUserID returns a copy of the request whose context carries the
// authenticated user's ID.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

// GetUserID returns the authenticated user's ID, or "" when the request was
// never authenticated.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}
