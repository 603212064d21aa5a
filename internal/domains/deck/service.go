package deck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cardvault-backend/internal/domains/deck/model"
	"cardvault-backend/internal/infrastructure/lock"
	"cardvault-backend/internal/shared/apperr"
	"cardvault-backend/internal/shared/authz"
)

const (
	createDeckLease = 10 * time.Second
	deckLease       = 5 * time.Second
)

type Service struct {
	repo Repository
	lock *lock.Lock
}

func NewService(repo Repository, l *lock.Lock) *Service {
	return &Service{repo: repo, lock: l}
}

func (s *Service) Get(ctx context.Context, id string) (*model.Deck, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == ErrDeckNotFound {
			return nil, apperr.NotFound("deck not found")
		}
		return nil, apperr.Internal("look up deck", err)
	}
	return d, nil
}

func (s *Service) ListForPrincipal(ctx context.Context, principal string, isAdmin bool) ([]*model.Deck, error) {
	if isAdmin {
		decks, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, apperr.Internal("list decks", err)
		}
		return decks, nil
	}
	decks, err := s.repo.FindByOwner(ctx, principal)
	if err != nil {
		return nil, apperr.Internal("list decks", err)
	}
	return decks, nil
}

// Create acquires a per-principal lock before persisting a new deck.
// Unlike the mutation lease below, denial here is a hard reject: the
// lock is what stands between one user firing two create requests at
// once and ending up with two decks from a single click.
func (s *Service) Create(ctx context.Context, name, owner string) (*model.Deck, error) {
	name = model.SanitizeName(name)
	if err := validateDeckName(name); err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("user:%s:create_deck", owner)
	ok, err := s.lock.Acquire(ctx, lockKey, createDeckLease)
	if err != nil {
		return nil, apperr.Internal("acquire create-deck lock", err)
	}
	if !ok {
		return nil, apperr.Conflict("a deck creation is already in progress, try again")
	}
	defer s.lock.Release(ctx, lockKey)

	d := &model.Deck{Name: name, Owner: owner}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, apperr.Internal("create deck", err)
	}
	return d, nil
}

// Update overwrites a deck's mutable fields (currently just Name).
// Owner is preserved regardless of what the patch carries.
func (s *Service) Update(ctx context.Context, id, name, principal string, isAdmin bool) (*model.Deck, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(existing.Owner, principal, roleList(isAdmin)) {
		return nil, apperr.Authorization("only the deck owner or an admin can modify this deck")
	}

	sanitized := model.SanitizeName(name)
	if err := validateDeckName(sanitized); err != nil {
		return nil, err
	}

	lockKey := "deck:" + id
	var updated *model.Deck
	err = lock.WithLock(ctx, s.lock, lockKey, deckLease, func() error {
		existing.Name = sanitized
		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		if err == ErrDeckNotFound {
			return nil, apperr.NotFound("deck not found")
		}
		return nil, apperr.Internal("update deck", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, principal string, isAdmin bool) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !authz.CanModify(existing.Owner, principal, roleList(isAdmin)) {
		return apperr.Authorization("only the deck owner or an admin can delete this deck")
	}

	lockKey := "deck:" + id
	err = lock.WithLock(ctx, s.lock, lockKey, deckLease, func() error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if err == ErrDeckNotFound {
			return apperr.NotFound("deck not found")
		}
		return apperr.Internal("delete deck", err)
	}
	return nil
}

// CardCountResult is what addCard/removeCard report back: the new
// deck size and the caller card's remaining copy count.
type CardCountResult struct {
	Size    int
	Copies  int
}

// AddCard appends cardName to the deck if the two size/copy
// invariants allow it. Both checks and the append happen inside the
// same database transaction the repository opens, so the lock above
// is only there to avoid wasted transaction retries under real
// contention, never the source of truth.
func (s *Service) AddCard(ctx context.Context, deckID, cardName, principal string, isAdmin bool) (*CardCountResult, error) {
	existing, err := s.Get(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(existing.Owner, principal, roleList(isAdmin)) {
		return nil, apperr.Authorization("only the deck owner or an admin can modify this deck")
	}

	cardExists, err := s.repo.CardExists(ctx, cardName)
	if err != nil {
		return nil, apperr.Internal("check card exists", err)
	}
	if !cardExists {
		return nil, apperr.NotFound(fmt.Sprintf("card %q not found", cardName))
	}

	lockKey := "deck:" + deckID
	var result *CardCountResult
	txErr := lock.WithLock(ctx, s.lock, lockKey, deckLease, func() error {
		return s.repo.WithDeckTx(ctx, deckID, func(ctx context.Context, d *model.Deck) error {
			if len(d.Cards) >= model.MaxSize {
				return ErrDeckFull
			}
			if d.CopiesOf(cardName) >= model.MaxCopies {
				return ErrCopiesExceeded
			}
			d.Cards = append(d.Cards, cardName)
			result = &CardCountResult{Size: len(d.Cards), Copies: d.CopiesOf(cardName)}
			return nil
		})
	})
	if txErr != nil {
		return nil, mapDeckTxError(txErr)
	}
	return result, nil
}

// RemoveCard removes the first occurrence of cardName. Removing a
// card that isn't present is a no-op, not an error, matching
// spec's "symmetric ... no-op otherwise" wording.
func (s *Service) RemoveCard(ctx context.Context, deckID, cardName, principal string, isAdmin bool) (*CardCountResult, error) {
	existing, err := s.Get(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if !authz.CanModify(existing.Owner, principal, roleList(isAdmin)) {
		return nil, apperr.Authorization("only the deck owner or an admin can modify this deck")
	}

	lockKey := "deck:" + deckID
	var result *CardCountResult
	txErr := lock.WithLock(ctx, s.lock, lockKey, deckLease, func() error {
		return s.repo.WithDeckTx(ctx, deckID, func(ctx context.Context, d *model.Deck) error {
			d.RemoveFirst(cardName)
			result = &CardCountResult{Size: len(d.Cards), Copies: d.CopiesOf(cardName)}
			return nil
		})
	})
	if txErr != nil {
		return nil, mapDeckTxError(txErr)
	}
	return result, nil
}

func mapDeckTxError(err error) error {
	switch err {
	case ErrDeckNotFound:
		return apperr.NotFound("deck not found")
	case ErrDeckFull:
		return apperr.Validation("deck has reached the maximum of 60 cards")
	case ErrCopiesExceeded:
		return apperr.Validation("deck already has the maximum of 3 copies of this card")
	default:
		return apperr.Internal("update deck cards", err)
	}
}

func roleList(isAdmin bool) []string {
	if isAdmin {
		return []string{"ADMIN"}
	}
	return []string{"USER"}
}

func validateDeckName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name is required")
	}
	if len(name) > model.MaxNameLength {
		return apperr.Validation("name exceeds maximum length")
	}
	return nil
}
