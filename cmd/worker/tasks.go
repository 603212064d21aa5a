package main

import (
	"context"
	"log"

	"github.com/hibiken/asynq"

	"cardvault-backend/internal/domains/auth"
)

// TypeCleanupExpiredTokens is the recurring housekeeping task that
// sweeps revoked and expired refresh tokens out of storage.
const TypeCleanupExpiredTokens = "auth:cleanup_expired_tokens"

// cleanupHandler adapts auth.Service.CleanupExpiredTokens to an asynq
// task handler.
type cleanupHandler struct {
	auth *auth.Service
}

func (h *cleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	n, err := h.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	log.Printf("[cleanup] removed %d expired or revoked refresh tokens", n)
	return nil
}
