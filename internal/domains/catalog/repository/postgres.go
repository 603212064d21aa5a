package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cardvault-backend/internal/domains/catalog"
	"cardvault-backend/internal/domains/catalog/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) catalog.Repository {
	return &postgresRepository{pool: pool}
}

const cardSelectColumns = `
	c.id, c.name, c.card_type, c.description, c.race, c.attribute,
	c.archetype_id, a.name, c.created_at, c.updated_at
`

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	var archetypeName *string
	if err := row.Scan(
		&c.ID, &c.Name, &c.CardType, &c.Description, &c.Race, &c.Attribute,
		&c.ArchetypeID, &archetypeName, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.ArchetypeName = archetypeName
	return &c, nil
}

func (r *postgresRepository) FindByName(ctx context.Context, name string) (*model.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM cards c
		LEFT JOIN archetypes a ON a.id = c.archetype_id
		WHERE c.name = $1
	`, cardSelectColumns)

	card, err := scanCard(r.pool.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find card by name: %w", err)
	}
	return card, nil
}

// FindAllSorted returns a page ordered case-insensitively by name
// with a deterministic collation, stabilizing pagination across pages
// even when names differ only by case.
func (r *postgresRepository) FindAllSorted(ctx context.Context, page, size int) ([]*model.Card, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM cards c
		LEFT JOIN archetypes a ON a.id = c.archetype_id
		ORDER BY LOWER(c.name), c.name
		LIMIT $1 OFFSET $2
	`, cardSelectColumns)

	return r.queryCards(ctx, query, size, page*size)
}

func (r *postgresRepository) Search(ctx context.Context, query string, page, size int) ([]*model.Card, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM cards c
		LEFT JOIN archetypes a ON a.id = c.archetype_id
		WHERE LOWER(c.name) LIKE $1 OR LOWER(a.name) LIKE $1
		ORDER BY LOWER(c.name), c.name
		LIMIT $2 OFFSET $3
	`, cardSelectColumns)

	pattern := "%" + strings.ToLower(query) + "%"
	return r.queryCards(ctx, sql, pattern, size, page*size)
}

func (r *postgresRepository) queryCards(ctx context.Context, query string, args ...interface{}) ([]*model.Card, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func (r *postgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) SearchCount(ctx context.Context, query string) (int64, error) {
	sql := `
		SELECT COUNT(*)
		FROM cards c
		LEFT JOIN archetypes a ON a.id = c.archetype_id
		WHERE LOWER(c.name) LIKE $1 OR LOWER(a.name) LIKE $1
	`
	pattern := "%" + strings.ToLower(query) + "%"
	var n int64
	if err := r.pool.QueryRow(ctx, sql, pattern).Scan(&n); err != nil {
		return 0, fmt.Errorf("count search cards: %w", err)
	}
	return n, nil
}

// Save upserts a card keyed by its immutable name.
func (r *postgresRepository) Save(ctx context.Context, card *model.Card) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}

	query := `
		INSERT INTO cards (id, name, card_type, description, race, attribute, archetype_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (name) DO UPDATE SET
			card_type = EXCLUDED.card_type,
			description = EXCLUDED.description,
			race = EXCLUDED.race,
			attribute = EXCLUDED.attribute,
			archetype_id = EXCLUDED.archetype_id,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		card.ID, card.Name, card.CardType, card.Description, card.Race, card.Attribute, card.ArchetypeID,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCardNotFound
	}
	return nil
}

func (r *postgresRepository) IsReferencedByDeck(ctx context.Context, cardName string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM deck_cards WHERE card_name = $1)`, cardName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check card reference: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) FindArchetypeByID(ctx context.Context, id string) (*model.Archetype, error) {
	var a model.Archetype
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM archetypes WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrArchetypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find archetype by id: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) FindArchetypeByName(ctx context.Context, name string) (*model.Archetype, error) {
	var a model.Archetype
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at FROM archetypes WHERE name = $1`, name).
		Scan(&a.ID, &a.Name, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrArchetypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find archetype by name: %w", err)
	}
	return &a, nil
}

func (r *postgresRepository) FindArchetypesByNameIn(ctx context.Context, names []string) ([]*model.Archetype, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM archetypes WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("find archetypes by name: %w", err)
	}
	defer rows.Close()

	var out []*model.Archetype
	for rows.Next() {
		var a model.Archetype
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archetype: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *postgresRepository) ListArchetypes(ctx context.Context) ([]*model.Archetype, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM archetypes ORDER BY LOWER(name)`)
	if err != nil {
		return nil, fmt.Errorf("list archetypes: %w", err)
	}
	defer rows.Close()

	var out []*model.Archetype
	for rows.Next() {
		var a model.Archetype
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan archetype: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// InsertArchetypes bulk-inserts new archetype rows. A uniqueness
// conflict surfaces as a *pgconn.PgError with code 23505 so the
// caller can fall back to the one-by-one retry the upsert algorithm
// requires; it does not swallow the conflict itself.
func (r *postgresRepository) InsertArchetypes(ctx context.Context, names []string) ([]*model.Archetype, error) {
	if len(names) == 0 {
		return nil, nil
	}

	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(
			`INSERT INTO archetypes (id, name, created_at) VALUES ($1, $2, now()) RETURNING id, name, created_at`,
			uuid.New().String(), name,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	out := make([]*model.Archetype, 0, len(names))
	for range names {
		var a model.Archetype
		if err := br.QueryRow().Scan(&a.ID, &a.Name, &a.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return out, err
			}
			return out, fmt.Errorf("insert archetype: %w", err)
		}
		out = append(out, &a)
	}
	return out, nil
}

func (r *postgresRepository) CountByArchetypeID(ctx context.Context, archetypeID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE archetype_id = $1`, archetypeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by archetype: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) DeleteArchetype(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM archetypes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete archetype: %w", err)
	}
	return nil
}
