package auth

import (
	"context"

	"cardvault-backend/internal/domains/auth/model"
)

// PrincipalRepository resolves and lists authenticated identities.
// Principals are seeded, never created through this API surface.
type PrincipalRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Principal, error)
	List(ctx context.Context) ([]*model.Principal, error)
}

// RefreshTokenRepository persists the opaque refresh-token state
// machine, keyed by the token's SHA-256 hash.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t *model.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, hash string) error
	RevokeAllForPrincipal(ctx context.Context, principalID int64) error
	DeleteExpiredOrRevoked(ctx context.Context) (int64, error)
	Touch(ctx context.Context, hash string) error
}
