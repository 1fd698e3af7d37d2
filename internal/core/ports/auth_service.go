package ports

import (
	"context"

	"github.com/librarium/loan-service/internal/core/domain"
)

// TokenBlacklist revokes JWTs by jti until their natural expiry.
type TokenBlacklist interface {
	Revoke(ctx context.Context, jti string, ttlSeconds int64) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService defines registration, login and logout.
type AuthService interface {
	// Register creates a member account. Role escalation goes through the
	// admin-only user endpoints, never through registration.
	Register(ctx context.Context, email, password, fullName string) (*domain.User, error)
	// Login returns a signed JWT and the authenticated user.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	// Logout revokes the presented token.
	Logout(ctx context.Context, token string) error
}
