package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout puts a deadline on each request's context so persistence work
// cannot run unbounded. Expired deadlines surface as timeout errors from the
// repository layer and map to 408 responses.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
