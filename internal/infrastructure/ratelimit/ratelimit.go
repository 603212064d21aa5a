// Package ratelimit implements the token-bucket rate limiter (C4):
// a policy table mapping normalized endpoints to capacity/window
// pairs, backed by counters in the coordination store so buckets are
// shared across replicas.
package ratelimit

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cardvault-backend/internal/infrastructure/coordination"
)

// Policy is one row of the rate-limit policy table.
type Policy struct {
	Method   string // "" matches any method
	Path     string // exact normalized path, or "" for prefix match
	Prefix   string // path prefix, used for /actuator/* and /cards/*
	Capacity int
	Window   time.Duration
	Bypass   bool
}

var deckLike = regexp.MustCompile(`^/(cards|decks|archetypes)/[^/]+$`)

// normalizePath collapses /{cards,decks,archetypes}/<x> to /…/* so a
// bucket is shared across all individual resource paths of the same
// endpoint class.
func normalizePath(path string) string {
	if deckLike.MatchString(path) {
		parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
		return "/" + parts[0] + "/*"
	}
	return path
}

// Limiter holds the policy table and the coordination-store window
// used to compute refills.
type Limiter struct {
	coord  *coordination.Client
	window time.Duration
}

func New(coord *coordination.Client, window time.Duration) *Limiter {
	return &Limiter{coord: coord, window: window}
}

// resolve returns the policy that governs method+path, most-specific
// match first, per spec's ordering.
func (l *Limiter) resolve(method, path string, hasQuery bool) (capacity int, bypass bool) {
	switch {
	case method == "POST" && path == "/auth/login":
		return 5, false
	case method == "GET" && path == "/cards" && hasQuery:
		return 20, false
	case (method == "POST" || method == "PUT" || method == "PATCH" || method == "DELETE") &&
		strings.HasPrefix(path, "/cards/"):
		return 30, false
	case strings.HasPrefix(path, "/actuator/"):
		return 0, true
	default:
		return 100, false
	}
}

// Identity resolves the rate-limit identity: authenticated username
// if present, else the client IP.
func Identity(principal, clientIP string, isAnonymous bool) string {
	if !isAnonymous && principal != "" {
		return principal
	}
	return clientIP
}

// Allow reports whether one request against method+path from id may
// proceed, consuming a token if so. It fails open on a coordination
// store error, per spec's degraded-mode rule for rate limiting.
func (l *Limiter) Allow(ctx context.Context, id, method, path string, hasQuery bool) (bool, error) {
	capacity, bypass := l.resolve(method, path, hasQuery)
	if bypass {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:%s:%s", id, normalizePath(path))
	tokensKey := key + ":tokens"
	refillKey := key + ":refill_at"

	now := time.Now()

	rawTokens, found, err := l.coord.Get(ctx, tokensKey)
	if err != nil {
		return true, nil
	}

	var tokens float64
	var lastRefill time.Time

	if !found {
		tokens = float64(capacity)
		lastRefill = now
	} else {
		tokens, _ = strconv.ParseFloat(rawTokens, 64)
		rawRefill, refillFound, rErr := l.coord.Get(ctx, refillKey)
		if rErr != nil || !refillFound {
			lastRefill = now
		} else {
			unixNano, _ := strconv.ParseInt(rawRefill, 10, 64)
			lastRefill = time.Unix(0, unixNano)
		}
	}

	elapsed := now.Sub(lastRefill)
	refillRate := float64(capacity) / l.window.Seconds()
	tokens += elapsed.Seconds() * refillRate
	if tokens > float64(capacity) {
		tokens = float64(capacity)
	}

	if tokens < 1 {
		_ = l.coord.Set(ctx, tokensKey, strconv.FormatFloat(tokens, 'f', 6, 64), l.window*2)
		_ = l.coord.Set(ctx, refillKey, strconv.FormatInt(now.UnixNano(), 10), l.window*2)
		return false, nil
	}

	tokens -= 1
	_ = l.coord.Set(ctx, tokensKey, strconv.FormatFloat(tokens, 'f', 6, 64), l.window*2)
	_ = l.coord.Set(ctx, refillKey, strconv.FormatInt(now.UnixNano(), 10), l.window*2)

	return true, nil
}
