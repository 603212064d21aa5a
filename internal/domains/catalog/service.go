package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardvault-backend/internal/domains/catalog/model"
	"cardvault-backend/internal/infrastructure/cache"
	"cardvault-backend/internal/infrastructure/queue"
	"cardvault-backend/internal/shared/apperr"

	"github.com/rs/zerolog/log"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

type Service struct {
	repo  Repository
	cards *cache.Namespace
	q     *queue.Queue
}

func NewService(repo Repository, cards *cache.Namespace, q *queue.Queue) *Service {
	return &Service{repo: repo, cards: cards, q: q}
}

// GetByName is a read-through lookup cached under name:<n>.
func (s *Service) GetByName(ctx context.Context, name string) (*model.Card, error) {
	var card model.Card
	err := s.cards.GetOrCompute(ctx, "name:"+name, &card, func() (interface{}, error) {
		return s.repo.FindByName(ctx, name)
	})
	if err != nil {
		if err == ErrCardNotFound {
			return nil, apperr.NotFound(fmt.Sprintf("card %q not found", name))
		}
		return nil, apperr.Internal("look up card", err)
	}
	return &card, nil
}

// ListPage returns a cached page, sorted case-insensitively by name.
// size is clamped to [1,200] with a default of 20.
func (s *Service) ListPage(ctx context.Context, page, size int) (*model.Page, error) {
	size = clampSize(size)
	if page < 0 {
		page = 0
	}

	cacheKey := fmt.Sprintf("page:%d:size:%d", page, size)
	var result model.Page
	err := s.cards.GetOrCompute(ctx, cacheKey, &result, func() (interface{}, error) {
		items, err := s.repo.FindAllSorted(ctx, page, size)
		if err != nil {
			return nil, err
		}
		total, err := s.repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		return &model.Page{Items: items, CurrentPage: page, PageSize: size, TotalItems: total}, nil
	})
	if err != nil {
		return nil, apperr.Internal("list cards", err)
	}
	return &result, nil
}

// SearchPage is deliberately not cached: the query-string key space
// is unbounded, so caching it would never pay off.
func (s *Service) SearchPage(ctx context.Context, query string, page, size int) (*model.Page, error) {
	size = clampSize(size)
	if page < 0 {
		page = 0
	}

	items, err := s.repo.Search(ctx, strings.TrimSpace(query), page, size)
	if err != nil {
		return nil, apperr.Internal("search cards", err)
	}
	total, err := s.repo.SearchCount(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, apperr.Internal("count search results", err)
	}
	return &model.Page{Items: items, CurrentPage: page, PageSize: size, TotalItems: total}, nil
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.cards.GetOrCompute(ctx, "count", &count, func() (interface{}, error) {
		return s.repo.Count(ctx)
	})
	if err != nil {
		return 0, apperr.Internal("count cards", err)
	}
	return count, nil
}

// Save creates or updates a card keyed by name. If an archetype name
// is supplied it is resolved (upserted) first and the card persisted
// against the resolved row.
func (s *Service) Save(ctx context.Context, card *model.Card) (*model.Card, error) {
	if err := validateCard(card); err != nil {
		return nil, err
	}

	isCreate := true
	if existing, err := s.repo.FindByName(ctx, card.Name); err == nil {
		isCreate = false
		card.ID = existing.ID
	} else if err != ErrCardNotFound {
		return nil, apperr.Internal("check existing card", err)
	}

	if card.ArchetypeName != nil && strings.TrimSpace(*card.ArchetypeName) != "" {
		resolved, err := s.ensureArchetypes(ctx, []string{*card.ArchetypeName})
		if err != nil {
			return nil, err
		}
		id := resolved[*card.ArchetypeName].ID
		card.ArchetypeID = &id
	} else {
		card.ArchetypeID = nil
	}

	if err := s.repo.Save(ctx, card); err != nil {
		return nil, apperr.Internal("save card", err)
	}

	if err := s.cards.EvictAll(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog: evict cache after save failed")
	}

	msgType := queue.TypeCardUpdated
	if isCreate {
		msgType = queue.TypeCardCreated
	}
	s.enqueueBestEffort(ctx, queue.QueueCardOperations, msgType, map[string]string{"cardName": card.Name})
	s.enqueueBestEffort(ctx, queue.QueueNotifications, queue.TypeSystem, map[string]string{
		"message": fmt.Sprintf("card %q saved", card.Name),
	})

	return card, nil
}

// Delete removes a card by name, refusing when it is still
// referenced by any deck, then best-effort garbage-collects its
// archetype if this was the last card in it.
func (s *Service) Delete(ctx context.Context, name string) error {
	card, err := s.repo.FindByName(ctx, name)
	if err != nil {
		if err == ErrCardNotFound {
			return apperr.NotFound(fmt.Sprintf("card %q not found", name))
		}
		return apperr.Internal("look up card", err)
	}

	referenced, err := s.repo.IsReferencedByDeck(ctx, name)
	if err != nil {
		return apperr.Internal("check deck references", err)
	}
	if referenced {
		return apperr.Conflict("cannot delete card: used in decks")
	}

	archetypeID := card.ArchetypeID

	if err := s.repo.Delete(ctx, name); err != nil {
		return apperr.Internal("delete card", err)
	}

	if err := s.cards.EvictAll(ctx); err != nil {
		log.Warn().Err(err).Msg("catalog: evict cache after delete failed")
	}

	if archetypeID != nil {
		count, err := s.repo.CountByArchetypeID(ctx, *archetypeID)
		if err != nil {
			log.Warn().Err(err).Str("archetype_id", *archetypeID).Msg("catalog: orphan check failed")
		} else if count == 0 {
			if err := s.repo.DeleteArchetype(ctx, *archetypeID); err != nil {
				log.Warn().Err(err).Str("archetype_id", *archetypeID).Msg("catalog: orphan archetype delete failed")
			}
		}
	}

	s.enqueueBestEffort(ctx, queue.QueueCardOperations, queue.TypeCardDeleted, map[string]string{"cardName": name})

	return nil
}

// EvictCache clears the entire cards cache namespace on demand.
func (s *Service) EvictCache(ctx context.Context) error {
	if err := s.cards.EvictAll(ctx); err != nil {
		return apperr.Internal("evict cache", err)
	}
	return nil
}

// Warmup re-populates the first pages of the catalog cache. It is
// idempotent and meant to run right after an EvictAll so the hot set
// stays resident instead of every next reader paying a cache miss.
func (s *Service) Warmup(ctx context.Context) error {
	if _, err := s.Count(ctx); err != nil {
		return err
	}
	for p := 0; p < 5; p++ {
		if _, err := s.ListPage(ctx, p, DefaultPageSize); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) GetArchetype(ctx context.Context, id string) (*model.Archetype, error) {
	a, err := s.repo.FindArchetypeByID(ctx, id)
	if err != nil {
		if err == ErrArchetypeNotFound {
			return nil, apperr.NotFound("archetype not found")
		}
		return nil, apperr.Internal("look up archetype", err)
	}
	return a, nil
}

func (s *Service) ListArchetypes(ctx context.Context) ([]*model.Archetype, error) {
	archetypes, err := s.repo.ListArchetypes(ctx)
	if err != nil {
		return nil, apperr.Internal("list archetypes", err)
	}
	return archetypes, nil
}

// ensureArchetypes resolves a set of archetype names to rows,
// creating any that don't yet exist. A bulk insert races with
// concurrent callers doing the same thing; on a uniqueness conflict
// it re-queries what now exists and retries the remainder one name at
// a time, taking the winner of any further one-by-one race. It never
// returns an error for a name that some caller has successfully
// created — a concurrent row is semantically equivalent to one this
// call would have created itself.
func (s *Service) ensureArchetypes(ctx context.Context, names []string) (map[string]*model.Archetype, error) {
	result := make(map[string]*model.Archetype, len(names))

	existing, err := s.repo.FindArchetypesByNameIn(ctx, names)
	if err != nil {
		return nil, apperr.Internal("look up archetypes", err)
	}
	for _, a := range existing {
		result[a.Name] = a
	}

	var missing []string
	for _, n := range names {
		if _, ok := result[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	created, insertErr := s.repo.InsertArchetypes(ctx, missing)
	for _, a := range created {
		result[a.Name] = a
	}
	if insertErr == nil {
		return result, nil
	}

	// Conflict: someone else created one or more of the missing
	// names concurrently. Retry each remaining name individually.
	for _, n := range missing {
		if _, ok := result[n]; ok {
			continue
		}
		if a, err := s.repo.FindArchetypeByName(ctx, n); err == nil {
			result[n] = a
			continue
		}
		created, err := s.repo.InsertArchetypes(ctx, []string{n})
		if err == nil && len(created) == 1 {
			result[n] = created[0]
			continue
		}
		// Lost the create race a second time; the winner's row must
		// exist now.
		a, err := s.repo.FindArchetypeByName(ctx, n)
		if err != nil {
			return nil, apperr.Internal(fmt.Sprintf("resolve archetype %q", n), err)
		}
		result[n] = a
	}

	return result, nil
}

func (s *Service) enqueueBestEffort(ctx context.Context, queueName, msgType string, payload interface{}) {
	if err := s.q.Enqueue(ctx, queueName, msgType, payload, time.Now()); err != nil {
		log.Warn().Err(err).Str("queue", queueName).Str("type", msgType).Msg("catalog: enqueue failed")
	}
}

func clampSize(size int) int {
	if size <= 0 {
		return DefaultPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

func validateCard(card *model.Card) error {
	if strings.TrimSpace(card.Name) == "" {
		return apperr.Validation("name is required")
	}
	if len(card.Name) > model.MaxNameLength {
		return apperr.Validation("name exceeds maximum length")
	}
	if len(card.CardType) > model.MaxCardTypeLength {
		return apperr.Validation("type exceeds maximum length")
	}
	if len(card.Description) > model.MaxDescriptionLength {
		return apperr.Validation("description exceeds maximum length")
	}
	if len(card.Race) > model.MaxRaceLength {
		return apperr.Validation("race exceeds maximum length")
	}
	if len(card.Attribute) > model.MaxAttributeLength {
		return apperr.Validation("attribute exceeds maximum length")
	}
	return nil
}
