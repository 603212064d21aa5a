package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardvault-backend/internal/domains/auth"
	"cardvault-backend/internal/domains/auth/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRefreshTokenRepository(pool *pgxpool.Pool) auth.RefreshTokenRepository {
	return &postgresRefreshTokenRepository{pool: pool}
}

func (r *postgresRefreshTokenRepository) Create(ctx context.Context, t *model.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token_hash, principal_id, created_at, expires_at, revoked)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, t.TokenHash, t.PrincipalID, t.CreatedAt, t.ExpiresAt, t.Revoked)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.ErrRefreshTokenExists
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokenRepository) FindByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	query := `
		SELECT token_hash, principal_id, created_at, expires_at, last_used_at, revoked
		FROM refresh_tokens
		WHERE token_hash = $1
	`
	var t model.RefreshToken
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&t.TokenHash, &t.PrincipalID, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt, &t.Revoked,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &t, nil
}

// Revoke marks a token revoked. It is idempotent: revoking an
// already-revoked or missing token is not an error, matching the
// logout endpoint's idempotency requirement.
func (r *postgresRefreshTokenRepository) Revoke(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE token_hash = $1`, hash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokenRepository) RevokeAllForPrincipal(ctx context.Context, principalID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE principal_id = $1`, principalID)
	if err != nil {
		return fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return nil
}

func (r *postgresRefreshTokenRepository) DeleteExpiredOrRevoked(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE revoked = true OR expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("cleanup refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRefreshTokenRepository) Touch(ctx context.Context, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET last_used_at = $1 WHERE token_hash = $2`, time.Now(), hash)
	if err != nil {
		return fmt.Errorf("touch refresh token: %w", err)
	}
	return nil
}
