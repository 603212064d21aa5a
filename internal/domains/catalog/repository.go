package catalog

import (
	"context"

	"cardvault-backend/internal/domains/catalog/model"
)

// Repository is the catalog's persistence boundary. Sort order for
// every paginated method is case-insensitive ascending by name with a
// deterministic collation, so pagination is stable across calls.
type Repository interface {
	FindByName(ctx context.Context, name string) (*model.Card, error)
	FindAllSorted(ctx context.Context, page, size int) ([]*model.Card, error)
	Search(ctx context.Context, query string, page, size int) ([]*model.Card, error)
	Count(ctx context.Context) (int64, error)
	SearchCount(ctx context.Context, query string) (int64, error)
	Save(ctx context.Context, card *model.Card) error
	Delete(ctx context.Context, name string) error
	IsReferencedByDeck(ctx context.Context, cardName string) (bool, error)

	FindArchetypeByID(ctx context.Context, id string) (*model.Archetype, error)
	FindArchetypesByNameIn(ctx context.Context, names []string) ([]*model.Archetype, error)
	FindArchetypeByName(ctx context.Context, name string) (*model.Archetype, error)
	InsertArchetypes(ctx context.Context, names []string) ([]*model.Archetype, error)
	ListArchetypes(ctx context.Context) ([]*model.Archetype, error)
	CountByArchetypeID(ctx context.Context, archetypeID string) (int64, error)
	DeleteArchetype(ctx context.Context, id string) error
}
