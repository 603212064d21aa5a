package deck

import (
	"context"
	"strconv"
	"testing"

	"cardvault-backend/internal/domains/deck/model"
	"cardvault-backend/internal/infrastructure/coordination"
	"cardvault-backend/internal/infrastructure/lock"
	"cardvault-backend/internal/shared/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository is an in-memory stand-in for the postgres-backed
// Repository, letting the service's invariant and authorization logic
// be exercised without a database.
type fakeRepository struct {
	decks      map[string]*model.Deck
	knownCards map[string]bool
	nextID     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		decks:      make(map[string]*model.Deck),
		knownCards: make(map[string]bool),
	}
}

func (r *fakeRepository) FindByID(ctx context.Context, id string) (*model.Deck, error) {
	d, ok := r.decks[id]
	if !ok {
		return nil, ErrDeckNotFound
	}
	cp := *d
	cp.Cards = append([]string(nil), d.Cards...)
	return &cp, nil
}

func (r *fakeRepository) FindByOwner(ctx context.Context, owner string) ([]*model.Deck, error) {
	var out []*model.Deck
	for _, d := range r.decks {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeRepository) ListAll(ctx context.Context) ([]*model.Deck, error) {
	var out []*model.Deck
	for _, d := range r.decks {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeRepository) Create(ctx context.Context, d *model.Deck) error {
	r.nextID++
	d.ID = strconv.Itoa(r.nextID)
	r.decks[d.ID] = d
	return nil
}

func (r *fakeRepository) Update(ctx context.Context, d *model.Deck) error {
	if _, ok := r.decks[d.ID]; !ok {
		return ErrDeckNotFound
	}
	r.decks[d.ID] = d
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string) error {
	if _, ok := r.decks[id]; !ok {
		return ErrDeckNotFound
	}
	delete(r.decks, id)
	return nil
}

func (r *fakeRepository) CardExists(ctx context.Context, name string) (bool, error) {
	return r.knownCards[name], nil
}

func (r *fakeRepository) WithDeckTx(ctx context.Context, id string, fn func(ctx context.Context, d *model.Deck) error) error {
	d, ok := r.decks[id]
	if !ok {
		return ErrDeckNotFound
	}
	if err := fn(ctx, d); err != nil {
		return err
	}
	return nil
}

// newTestService points the lock at an unreachable coordination store
// so every Acquire call fails open (returns held=true) deterministically,
// exercising the invariant logic without a live Redis.
func newTestService(repo *fakeRepository) *Service {
	coord := coordination.New("127.0.0.1:1", "", 0)
	return NewService(repo, lock.New(coord))
}

func TestCreateSanitizesAndValidatesName(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	d, err := svc.Create(context.Background(), "  <b>Burn Deck</b>  ", "user1")
	require.NoError(t, err)
	assert.Equal(t, "Burn Deck", d.Name)
	assert.Equal(t, "user1", d.Owner)

	_, err = svc.Create(context.Background(), "   ", "user1")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
}

func TestAddCardRejectsAtMaxSize(t *testing.T) {
	repo := newFakeRepository()
	repo.knownCards["Filler"] = true
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1", Cards: make([]string, model.MaxSize)}
	for i := range repo.decks["d1"].Cards {
		repo.decks["d1"].Cards[i] = "Slot"
	}
	svc := newTestService(repo)

	_, err := svc.AddCard(context.Background(), "d1", "Filler", "user1", false)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "maximum")
}

func TestAddCardRejectsAtMaxCopies(t *testing.T) {
	repo := newFakeRepository()
	repo.knownCards["Pot of Greed"] = true
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1", Cards: []string{"Pot of Greed", "Pot of Greed", "Pot of Greed"}}
	svc := newTestService(repo)

	_, err := svc.AddCard(context.Background(), "d1", "Pot of Greed", "user1", false)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Message, "3 copies")
}

func TestAddCardRejectsUnknownCard(t *testing.T) {
	repo := newFakeRepository()
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1"}
	svc := newTestService(repo)

	_, err := svc.AddCard(context.Background(), "d1", "Nonexistent", "user1", false)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestAddCardSucceedsUnderLimits(t *testing.T) {
	repo := newFakeRepository()
	repo.knownCards["Card1"] = true
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1"}
	svc := newTestService(repo)

	result, err := svc.AddCard(context.Background(), "d1", "Card1", "user1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Size)
	assert.Equal(t, 1, result.Copies)
}

func TestRemoveCardIsNoOpWhenAbsent(t *testing.T) {
	repo := newFakeRepository()
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1", Cards: []string{"Card1"}}
	svc := newTestService(repo)

	result, err := svc.RemoveCard(context.Background(), "d1", "NotThere", "user1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Size)
	assert.Equal(t, []string{"Card1"}, repo.decks["d1"].Cards)
}

func TestMutationDeniedForNonOwnerNonAdmin(t *testing.T) {
	repo := newFakeRepository()
	repo.knownCards["Card1"] = true
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1"}
	svc := newTestService(repo)

	_, err := svc.AddCard(context.Background(), "d1", "Card1", "user2", false)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindAuthorization, appErr.Kind)
}

func TestMutationAllowedForAdminRegardlessOfOwnership(t *testing.T) {
	repo := newFakeRepository()
	repo.knownCards["Card1"] = true
	repo.decks["d1"] = &model.Deck{ID: "d1", Owner: "user1"}
	svc := newTestService(repo)

	result, err := svc.AddCard(context.Background(), "d1", "Card1", "admin1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Size)
}

func TestGetMapsNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}
