package catalog

import (
	"context"
	"testing"
	"time"

	"cardvault-backend/internal/domains/catalog/model"
	"cardvault-backend/internal/infrastructure/cache"
	"cardvault-backend/internal/infrastructure/coordination"
	"cardvault-backend/internal/infrastructure/queue"
	"cardvault-backend/internal/shared/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogRepository struct {
	cards            map[string]*model.Card
	archetypesByID   map[string]*model.Archetype
	archetypesByName map[string]*model.Archetype
	nextArchetypeID  int
	insertConflict   bool
	referenced       map[string]bool
}

func newFakeCatalogRepository() *fakeCatalogRepository {
	return &fakeCatalogRepository{
		cards:            make(map[string]*model.Card),
		archetypesByID:   make(map[string]*model.Archetype),
		archetypesByName: make(map[string]*model.Archetype),
		referenced:       make(map[string]bool),
	}
}

func (r *fakeCatalogRepository) FindByName(ctx context.Context, name string) (*model.Card, error) {
	c, ok := r.cards[name]
	if !ok {
		return nil, ErrCardNotFound
	}
	return c, nil
}

func (r *fakeCatalogRepository) FindAllSorted(ctx context.Context, page, size int) ([]*model.Card, error) {
	var out []*model.Card
	for _, c := range r.cards {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCatalogRepository) Search(ctx context.Context, query string, page, size int) ([]*model.Card, error) {
	return nil, nil
}

func (r *fakeCatalogRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(r.cards)), nil
}

func (r *fakeCatalogRepository) SearchCount(ctx context.Context, query string) (int64, error) {
	return 0, nil
}

func (r *fakeCatalogRepository) Save(ctx context.Context, card *model.Card) error {
	if card.ID == "" {
		card.ID = "card-" + card.Name
	}
	r.cards[card.Name] = card
	return nil
}

func (r *fakeCatalogRepository) Delete(ctx context.Context, name string) error {
	delete(r.cards, name)
	return nil
}

func (r *fakeCatalogRepository) IsReferencedByDeck(ctx context.Context, cardName string) (bool, error) {
	return r.referenced[cardName], nil
}

func (r *fakeCatalogRepository) FindArchetypeByID(ctx context.Context, id string) (*model.Archetype, error) {
	a, ok := r.archetypesByID[id]
	if !ok {
		return nil, ErrArchetypeNotFound
	}
	return a, nil
}

func (r *fakeCatalogRepository) FindArchetypesByNameIn(ctx context.Context, names []string) ([]*model.Archetype, error) {
	var out []*model.Archetype
	for _, n := range names {
		if a, ok := r.archetypesByName[n]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeCatalogRepository) FindArchetypeByName(ctx context.Context, name string) (*model.Archetype, error) {
	a, ok := r.archetypesByName[name]
	if !ok {
		return nil, ErrArchetypeNotFound
	}
	return a, nil
}

// InsertArchetypes simulates a unique-constraint conflict the first
// time it is called with insertConflict set, matching the postgres
// repository's behavior when a concurrent caller wins the race.
func (r *fakeCatalogRepository) InsertArchetypes(ctx context.Context, names []string) ([]*model.Archetype, error) {
	if r.insertConflict {
		r.insertConflict = false
		return nil, apperr.Conflict("archetype name already exists")
	}
	var out []*model.Archetype
	for _, n := range names {
		r.nextArchetypeID++
		a := &model.Archetype{ID: "arch-" + n, Name: n}
		r.archetypesByName[n] = a
		r.archetypesByID[a.ID] = a
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeCatalogRepository) ListArchetypes(ctx context.Context) ([]*model.Archetype, error) {
	var out []*model.Archetype
	for _, a := range r.archetypesByName {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeCatalogRepository) CountByArchetypeID(ctx context.Context, archetypeID string) (int64, error) {
	var n int64
	for _, c := range r.cards {
		if c.ArchetypeID != nil && *c.ArchetypeID == archetypeID {
			n++
		}
	}
	return n, nil
}

func (r *fakeCatalogRepository) DeleteArchetype(ctx context.Context, id string) error {
	if a, ok := r.archetypesByID[id]; ok {
		delete(r.archetypesByName, a.Name)
	}
	delete(r.archetypesByID, id)
	return nil
}

// newTestService points cache and queue at an unreachable coordination
// store: cache reads fail open into the loader and cache/queue writes
// are best-effort, so the invariant logic under test never depends on
// a live Redis.
func newTestService(repo *fakeCatalogRepository) *Service {
	coord := coordination.New("127.0.0.1:1", "", 0)
	cards := cache.NewNamespace(coord, "cards", time.Minute)
	q := queue.New(coord)
	return NewService(repo, cards, q)
}

func TestSaveRejectsInvalidCard(t *testing.T) {
	svc := newTestService(newFakeCatalogRepository())

	_, err := svc.Save(context.Background(), &model.Card{Name: ""})
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}

func TestSaveCreatesAndResolvesArchetype(t *testing.T) {
	repo := newFakeCatalogRepository()
	svc := newTestService(repo)
	archetypeName := "Blue-Eyes"

	saved, err := svc.Save(context.Background(), &model.Card{Name: "Blue-Eyes White Dragon", ArchetypeName: &archetypeName})
	require.NoError(t, err)
	require.NotNil(t, saved.ArchetypeID)
	assert.Equal(t, "arch-Blue-Eyes", *saved.ArchetypeID)
	assert.Contains(t, repo.archetypesByName, archetypeName)
}

func TestSaveReusesExistingArchetypeAcrossCards(t *testing.T) {
	repo := newFakeCatalogRepository()
	svc := newTestService(repo)
	archetypeName := "Dark Magician"

	first, err := svc.Save(context.Background(), &model.Card{Name: "Dark Magician", ArchetypeName: &archetypeName})
	require.NoError(t, err)
	second, err := svc.Save(context.Background(), &model.Card{Name: "Dark Magician Girl", ArchetypeName: &archetypeName})
	require.NoError(t, err)

	assert.Equal(t, *first.ArchetypeID, *second.ArchetypeID)
	assert.Len(t, repo.archetypesByName, 1)
}

func TestEnsureArchetypesRetriesIndividuallyAfterInsertConflict(t *testing.T) {
	repo := newFakeCatalogRepository()
	repo.insertConflict = true
	svc := newTestService(repo)

	resolved, err := svc.ensureArchetypes(context.Background(), []string{"Fire Fist", "Fire King"})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Contains(t, resolved, "Fire Fist")
	assert.Contains(t, resolved, "Fire King")
}

func TestDeleteRefusesWhenReferencedByDeck(t *testing.T) {
	repo := newFakeCatalogRepository()
	repo.cards["Exodia"] = &model.Card{ID: "card-Exodia", Name: "Exodia"}
	repo.referenced["Exodia"] = true
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "Exodia")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, appErr.Kind)
	assert.Contains(t, repo.cards, "Exodia")
}

func TestDeleteGarbageCollectsOrphanedArchetype(t *testing.T) {
	repo := newFakeCatalogRepository()
	repo.archetypesByID["arch-1"] = &model.Archetype{ID: "arch-1", Name: "Blackwing"}
	repo.archetypesByName["Blackwing"] = repo.archetypesByID["arch-1"]
	archID := "arch-1"
	repo.cards["Blackwing - Gale the Whirlwind"] = &model.Card{ID: "card-1", Name: "Blackwing - Gale the Whirlwind", ArchetypeID: &archID}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "Blackwing - Gale the Whirlwind")
	require.NoError(t, err)
	assert.NotContains(t, repo.cards, "Blackwing - Gale the Whirlwind")
	assert.NotContains(t, repo.archetypesByID, "arch-1")
}

func TestListPageClampsSize(t *testing.T) {
	repo := newFakeCatalogRepository()
	repo.cards["A"] = &model.Card{ID: "1", Name: "A"}
	svc := newTestService(repo)

	page, err := svc.ListPage(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, page.PageSize)

	page, err = svc.ListPage(context.Background(), 0, 10000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
}

func TestGetByNameMapsNotFound(t *testing.T) {
	svc := newTestService(newFakeCatalogRepository())

	_, err := svc.GetByName(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}
