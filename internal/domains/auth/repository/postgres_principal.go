package repository

import (
	"context"
	"errors"
	"fmt"

	"cardvault-backend/internal/domains/auth"
	"cardvault-backend/internal/domains/auth/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresPrincipalRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPrincipalRepository(pool *pgxpool.Pool) auth.PrincipalRepository {
	return &postgresPrincipalRepository{pool: pool}
}

func (r *postgresPrincipalRepository) FindByUsername(ctx context.Context, username string) (*model.Principal, error) {
	query := `
		SELECT id, username, password_hash, role, enabled, created_at
		FROM principals
		WHERE username = $1
	`

	var p model.Principal
	var storedRole string
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&p.ID, &p.Username, &p.PasswordHash, &storedRole, &p.Enabled, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, auth.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find principal by username: %w", err)
	}

	p.Role = model.RoleFromStorage(storedRole)
	return &p, nil
}

func (r *postgresPrincipalRepository) List(ctx context.Context) ([]*model.Principal, error) {
	query := `SELECT id, username, password_hash, role, enabled, created_at FROM principals ORDER BY username`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list principals: %w", err)
	}
	defer rows.Close()

	var out []*model.Principal
	for rows.Next() {
		var p model.Principal
		var storedRole string
		if err := rows.Scan(&p.ID, &p.Username, &p.PasswordHash, &storedRole, &p.Enabled, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		p.Role = model.RoleFromStorage(storedRole)
		out = append(out, &p)
	}
	return out, rows.Err()
}
