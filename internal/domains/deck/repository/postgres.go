package repository

import (
	"context"
	"errors"
	"fmt"

	"cardvault-backend/internal/domains/deck"
	"cardvault-backend/internal/domains/deck/model"
	"cardvault-backend/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) deck.Repository {
	return &postgresRepository{pool: pool}
}

func findDeck(ctx context.Context, q pgxQuerier, id string) (*model.Deck, error) {
	var d model.Deck
	err := q.QueryRow(ctx, `SELECT id, name, owner, created_at, updated_at FROM decks WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Owner, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, deck.ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find deck: %w", err)
	}

	cards, err := loadCards(ctx, q, id)
	if err != nil {
		return nil, err
	}
	d.Cards = cards
	return &d, nil
}

func loadCards(ctx context.Context, q pgxQuerier, deckID string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT card_name FROM deck_cards WHERE deck_id = $1 ORDER BY position`, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck cards: %w", err)
	}
	defer rows.Close()

	var cards []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan deck card: %w", err)
		}
		cards = append(cards, name)
	}
	return cards, rows.Err()
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, letting
// findDeck/loadCards run either standalone or inside WithDeckTx.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconnCommandTag, error)
}

func (r *postgresRepository) FindByID(ctx context.Context, id string) (*model.Deck, error) {
	return findDeck(ctx, poolQuerier{r.pool}, id)
}

func (r *postgresRepository) FindByOwner(ctx context.Context, owner string) ([]*model.Deck, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM decks WHERE owner = $1 ORDER BY created_at`, owner)
	if err != nil {
		return nil, fmt.Errorf("find decks by owner: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deck id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	out := make([]*model.Deck, 0, len(ids))
	for _, id := range ids {
		d, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]*model.Deck, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM decks ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan deck id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	out := make([]*model.Deck, 0, len(ids))
	for _, id := range ids {
		d, err := r.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (r *postgresRepository) Create(ctx context.Context, d *model.Deck) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}

	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO decks (id, name, owner, created_at, updated_at) VALUES ($1, $2, $3, now(), now())
			 RETURNING created_at, updated_at`,
			d.ID, d.Name, d.Owner,
		).Scan(&d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create deck: %w", err)
		}
		return insertCards(ctx, tx, d.ID, d.Cards)
	})
}

func (r *postgresRepository) Update(ctx context.Context, d *model.Deck) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE decks SET name = $2, updated_at = now() WHERE id = $1`, d.ID, d.Name)
		if err != nil {
			return fmt.Errorf("update deck: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return deck.ErrDeckNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM deck_cards WHERE deck_id = $1`, d.ID); err != nil {
			return fmt.Errorf("clear deck cards: %w", err)
		}
		return insertCards(ctx, tx, d.ID, d.Cards)
	})
}

func insertCards(ctx context.Context, tx pgx.Tx, deckID string, cards []string) error {
	for i, name := range cards {
		if _, err := tx.Exec(ctx,
			`INSERT INTO deck_cards (deck_id, card_name, position) VALUES ($1, $2, $3)`,
			deckID, name, i,
		); err != nil {
			return fmt.Errorf("insert deck card: %w", err)
		}
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return deck.ErrDeckNotFound
	}
	return nil
}

func (r *postgresRepository) CardExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check card exists: %w", err)
	}
	return exists, nil
}

// WithDeckTx loads the deck for update inside a transaction, runs fn
// against the in-memory copy, then persists its card list and touches
// updated_at before commit. The two deck invariants are validated by
// fn itself, inside this same transaction, so the DB is the final
// authority even if the caller's distributed lock was never held.
func (r *postgresRepository) WithDeckTx(ctx context.Context, id string, fn func(ctx context.Context, d *model.Deck) error) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		d, err := findDeck(ctx, txQuerier{tx}, id)
		if err != nil {
			return err
		}

		if err := fn(ctx, d); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE decks SET updated_at = now() WHERE id = $1`, d.ID); err != nil {
			return fmt.Errorf("touch deck: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM deck_cards WHERE deck_id = $1`, d.ID); err != nil {
			return fmt.Errorf("clear deck cards: %w", err)
		}
		return insertCards(ctx, tx, d.ID, d.Cards)
	})
}

type pgconnCommandTag = interface {
	RowsAffected() int64
}

type poolQuerier struct {
	pool *pgxpool.Pool
}

func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}
func (p poolQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}
func (p poolQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconnCommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

type txQuerier struct {
	tx pgx.Tx
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}
func (t txQuerier) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}
func (t txQuerier) Exec(ctx context.Context, sql string, args ...interface{}) (pgconnCommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}
