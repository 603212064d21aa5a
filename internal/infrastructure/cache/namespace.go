// Package cache implements the namespaced read-through cache (C2):
// callers ask a Namespace for a key and a loader function, and get
// back either the cached value or the freshly computed one, cached
// for next time. Every key GetOrCompute puts into a namespace is
// tracked in a companion Redis set so EvictAll can remove the whole
// namespace as a unit without a key-pattern scan.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cardvault-backend/internal/infrastructure/coordination"
)

type Namespace struct {
	coord      *coordination.Client
	name       string
	defaultTTL time.Duration
}

func NewNamespace(coord *coordination.Client, name string, defaultTTL time.Duration) *Namespace {
	return &Namespace{coord: coord, name: name, defaultTTL: defaultTTL}
}

func (n *Namespace) key(id string) string {
	return fmt.Sprintf("cache:%s:%s", n.name, id)
}

func (n *Namespace) membersKey() string {
	return fmt.Sprintf("cache:%s:__members__", n.name)
}

// GetOrCompute returns the cached value for id, decoded into dest, or
// calls load, caches its result, and returns that. A coordination
// store outage degrades to always calling load (fail open on reads,
// same as the lock and rate limiter).
func (n *Namespace) GetOrCompute(ctx context.Context, id string, dest interface{}, load func() (interface{}, error)) error {
	raw, found, err := n.coord.Get(ctx, n.key(id))
	if err == nil && found {
		if uErr := json.Unmarshal([]byte(raw), dest); uErr == nil {
			return nil
		}
		// Corrupt cache entry: fall through to recompute.
	}

	value, err := load()
	if err != nil {
		return err
	}

	if putErr := n.Put(ctx, id, value); putErr != nil {
		// Cache write failures never fail the request; the value is
		// still returned to the caller below via re-marshal.
		_ = putErr
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal computed value: %w", err)
	}
	return json.Unmarshal(encoded, dest)
}

// Put writes value into the namespace under id with the namespace's
// default TTL and records id as a member for EvictAll.
func (n *Namespace) Put(ctx context.Context, id string, value interface{}) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal: %w", err)
	}
	if err := n.coord.Set(ctx, n.key(id), string(encoded), n.defaultTTL); err != nil {
		return err
	}
	return n.coord.SAdd(ctx, n.membersKey(), id)
}

// EvictAll removes every key this namespace has ever cached via Put,
// plus the membership set itself.
func (n *Namespace) EvictAll(ctx context.Context) error {
	members, err := n.coord.SMembers(ctx, n.membersKey())
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, n.key(m))
	}
	keys = append(keys, n.membersKey())

	return n.coord.Del(ctx, keys...)
}

// Probe reports whether id is currently cached, without touching it.
func (n *Namespace) Probe(ctx context.Context, id string) (bool, error) {
	return n.coord.Exists(ctx, n.key(id))
}
