// Package health reports the service's degraded-mode status: the
// database is the correctness authority and its absence is fatal to
// most endpoints, while the coordination store's absence only
// degrades caching, rate limiting, locking, and queueing per the
// documented fail-open/fail-closed rules those components each apply.
package health

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardvault-backend/internal/infrastructure/coordination"
)

type Checker struct {
	db    *pgxpool.Pool
	coord *coordination.Client
}

func NewChecker(db *pgxpool.Pool, coord *coordination.Client) *Checker {
	return &Checker{db: db, coord: coord}
}

// Handle serves GET /api/health: 200 when the database is reachable
// (the coordination store degrading does not fail the probe, matching
// the system's own fail-open posture), 503 otherwise.
func (h *Checker) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "error: " + err.Error()
	}

	coordStatus := "ok"
	if err := h.coord.HealthCheck(ctx); err != nil {
		coordStatus = "degraded: " + err.Error()
	}

	overall := "ok"
	if dbStatus != "ok" {
		overall = "degraded"
	}

	statusCode := 200
	if dbStatus != "ok" {
		statusCode = 503
	}

	c.JSON(statusCode, gin.H{
		"status":    overall,
		"timestamp": time.Now().Format(time.RFC3339),
		"services": gin.H{
			"database":          dbStatus,
			"coordinationStore": coordStatus,
		},
	})
}
