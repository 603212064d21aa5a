package deck

import (
	"context"

	"cardvault-backend/internal/domains/deck/model"
)

// Repository persists decks and their card membership. LoadForUpdate
// and Save are meant to be called inside the same transaction so the
// two size/copy invariants are checked and committed atomically.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Deck, error)
	FindByOwner(ctx context.Context, owner string) ([]*model.Deck, error)
	ListAll(ctx context.Context) ([]*model.Deck, error)
	Create(ctx context.Context, d *model.Deck) error
	Update(ctx context.Context, d *model.Deck) error
	Delete(ctx context.Context, id string) error
	CardExists(ctx context.Context, name string) (bool, error)

	// WithDeckTx runs fn with a deck loaded for update inside a
	// database transaction; fn mutates the in-memory deck and returns
	// it to be persisted before commit. The transaction is the
	// authority for the size/copy invariants; the caller's lock is
	// only a latency optimization.
	WithDeckTx(ctx context.Context, id string, fn func(ctx context.Context, d *model.Deck) error) error
}
