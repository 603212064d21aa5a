package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePolicyTable(t *testing.T) {
	l := &Limiter{window: time.Minute}

	capacity, bypass := l.resolve("POST", "/auth/login", false)
	assert.Equal(t, 5, capacity)
	assert.False(t, bypass)

	capacity, bypass = l.resolve("GET", "/cards", true)
	assert.Equal(t, 20, capacity)
	assert.False(t, bypass)

	capacity, bypass = l.resolve("GET", "/cards", false)
	assert.Equal(t, 100, capacity, "card list without a query falls to the default policy")

	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE"} {
		capacity, bypass = l.resolve(method, "/cards/Dark Magician", false)
		assert.Equal(t, 30, capacity, method)
		assert.False(t, bypass)
	}

	_, bypass = l.resolve("GET", "/actuator/health", false)
	assert.True(t, bypass)

	capacity, bypass = l.resolve("GET", "/decks", false)
	assert.Equal(t, 100, capacity)
	assert.False(t, bypass)
}

func TestNormalizePathCollapsesResourceIDs(t *testing.T) {
	assert.Equal(t, "/cards/*", normalizePath("/cards/Dark Magician"))
	assert.Equal(t, "/decks/*", normalizePath("/decks/abc-123"))
	assert.Equal(t, "/archetypes/*", normalizePath("/archetypes/7"))
	assert.Equal(t, "/cards", normalizePath("/cards"))
	assert.Equal(t, "/auth/login", normalizePath("/auth/login"))
}

func TestIdentityPrefersAuthenticatedPrincipal(t *testing.T) {
	assert.Equal(t, "user1", Identity("user1", "10.0.0.1", false))
	assert.Equal(t, "10.0.0.1", Identity("", "10.0.0.1", true))
	assert.Equal(t, "10.0.0.1", Identity("anonymous", "10.0.0.1", true))
}
