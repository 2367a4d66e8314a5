package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"revisor/internal/domain"
	"revisor/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSVerifier implements JWTVerifier using a remote JWKS endpoint.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

// NewJWTVerifier creates a new JWT verifier that fetches public keys from the
// identity provider's JWKS endpoint. The JWKS keys are cached and
// automatically refreshed based on HTTP cache headers.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	// keyfunc v3 handles caching and refresh based on HTTP cache headers
	ctx := context.Background()
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return &JWKSVerifier{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// VerifyToken validates a JWT token and extracts identity claims.
// Returns an error if the token is invalid, expired, or has incorrect claims.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Prevent algorithm confusion attacks - allow only RS256 or ES256
	switch token.Method.Alg() {
	case "RS256", "ES256":
		// allowed
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg(), "allowed", []string{"RS256", "ES256"})
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	// Validate user ID exists (sub claim)
	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Reject anonymous tokens
	if claims.Role != "authenticated" {
		v.logger.Debug("token has invalid role", "role", claims.Role, "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close releases resources held by the JWT verifier.
// keyfunc v3 manages its own resources based on HTTP cache headers,
// so this is a no-op for graceful shutdown compatibility.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
