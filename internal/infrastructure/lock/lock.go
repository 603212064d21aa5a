// Package lock implements the distributed lock (C3): a SETNX-based
// mutex over the coordination store, used to reduce contention on
// hot resources (a deck being edited by two requests at once). It is
// a latency optimization, not a correctness guarantee — the
// authoritative check always happens inside the database transaction
// that follows, so a false "lock acquired" from a stale or unverified
// release can never corrupt data.
package lock

import (
	"context"
	"time"

	"cardvault-backend/internal/infrastructure/coordination"

	"github.com/rs/zerolog/log"
)

const keyPrefix = "lock:"

type Lock struct {
	coord *coordination.Client
}

func New(coord *coordination.Client) *Lock {
	return &Lock{coord: coord}
}

// Acquire attempts to take the named lock for lease. On any
// coordination-store error it fails open (returns true, nil) rather
// than blocking every request behind a Redis outage.
func (l *Lock) Acquire(ctx context.Context, key string, lease time.Duration) (bool, error) {
	ok, err := l.coord.SetIfAbsent(ctx, keyPrefix+key, "held", lease)
	if err != nil {
		log.Error().Err(err).Str("lock", key).Msg("lock acquire failed, failing open")
		return true, nil
	}
	return ok, nil
}

// Release deletes the lock key unconditionally. It does not verify
// the caller still holds it (no fencing token) because nothing above
// this package trusts the lock alone for correctness.
func (l *Lock) Release(ctx context.Context, key string) error {
	return l.coord.Del(ctx, keyPrefix+key)
}

// WithLock acquires key, runs fn, and releases the lock afterward
// regardless of fn's outcome. If the lock could not be acquired, fn
// still runs (fail open) — callers that need a hard reject on
// contention should call Acquire directly instead.
func WithLock(ctx context.Context, l *Lock, key string, lease time.Duration, fn func() error) error {
	if _, err := l.Acquire(ctx, key, lease); err != nil {
		log.Error().Err(err).Str("lock", key).Msg("lock acquire error")
	}
	defer func() {
		if err := l.Release(ctx, key); err != nil {
			log.Error().Err(err).Str("lock", key).Msg("lock release failed")
		}
	}()
	return fn()
}
