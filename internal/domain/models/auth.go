package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is the JWT claims structure issued by the external identity
// provider. Authentication itself is out of scope here; the service only
// verifies the token signature and extracts the caller's user id.
type IdentityClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"role"`
	SessionID            string `json:"session_id"`
}

// GetUserID returns the user ID from the JWT subject claim.
// This is the primary identifier for the authenticated user.
func (c *IdentityClaims) GetUserID() string {
	return c.Subject
}
