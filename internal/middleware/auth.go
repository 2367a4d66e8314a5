package middleware

import (
	"net/http"
	"strings"

	"revisor/internal/auth"
	"revisor/internal/httputil"
)

// AuthMiddleware validates the bearer token on every request and stores the
// authenticated user ID in the request context. Health checks are exempt so
// load balancers can probe without credentials.
func AuthMiddleware(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			r = httputil.WithUserID(r, claims.GetUserID())
			next.ServeHTTP(w, r)
		})
	}
}
