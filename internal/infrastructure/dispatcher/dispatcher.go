// Package dispatcher runs the periodic background drain of the C5
// work queues (C6): a single ticker per replica pops a bounded batch
// from each known queue and routes it to a typed handler. Replicas
// contend on the same queues, which is the intended fan-out.
package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"cardvault-backend/internal/infrastructure/cache"
	"cardvault-backend/internal/infrastructure/queue"

	"github.com/rs/zerolog/log"
)

// CardOperationPayload is enqueued by the catalog service on every
// card create/update/delete.
type CardOperationPayload struct {
	CardName string `json:"cardName"`
}

// Dispatcher owns the poll loop and its dependencies.
type Dispatcher struct {
	q            *queue.Queue
	cardsCache   *cache.Namespace
	pollInterval time.Duration
	maxPerCycle  int

	stop chan struct{}
	done chan struct{}
}

func New(q *queue.Queue, cardsCache *cache.Namespace, pollInterval time.Duration, maxPerCycle int) *Dispatcher {
	return &Dispatcher{
		q:            q,
		cardsCache:   cardsCache,
		pollInterval: pollInterval,
		maxPerCycle:  maxPerCycle,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

var queues = []string{
	queue.QueueCardOperations,
	queue.QueueCacheOperations,
	queue.QueueNotifications,
}

// Start runs the poll loop in its own goroutine until Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			case <-ticker.C:
				d.runCycle(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it to finish.
func (d *Dispatcher) Stop() {
	close(d.stop)
	<-d.done
}

func (d *Dispatcher) runCycle(ctx context.Context) {
	for _, name := range queues {
		d.drainQueue(ctx, name)
	}
}

// drainQueue pops up to maxPerCycle messages non-blocking, aborting
// the rest of this queue's batch (but not other queues) on the first
// handler error, per spec's per-queue abort-on-error rule.
func (d *Dispatcher) drainQueue(ctx context.Context, name string) {
	processed := 0
	for processed < d.maxPerCycle {
		env, ok, err := d.q.DequeueNonBlocking(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("queue", name).Msg("dequeue failed")
			return
		}
		if !ok {
			return
		}

		if err := d.handle(ctx, name, env.Type, env.Payload); err != nil {
			log.Error().Err(err).Str("queue", name).Str("type", env.Type).Msg("handler failed, aborting queue for this cycle")
			return
		}

		processed++
	}
}

func (d *Dispatcher) handle(ctx context.Context, queueName, msgType string, payload json.RawMessage) error {
	switch queueName {
	case queue.QueueCardOperations:
		return d.handleCardOperation(msgType, payload)
	case queue.QueueCacheOperations:
		return d.handleCacheOperation(ctx, msgType)
	case queue.QueueNotifications:
		return d.handleNotification(msgType, payload)
	default:
		log.Warn().Str("queue", queueName).Msg("unknown queue")
		return nil
	}
}

func (d *Dispatcher) handleCardOperation(msgType string, payload json.RawMessage) error {
	var p CardOperationPayload
	_ = json.Unmarshal(payload, &p)

	switch msgType {
	case queue.TypeCardCreated, queue.TypeCardUpdated, queue.TypeCardDeleted:
		log.Info().Str("type", msgType).Str("card", p.CardName).Msg("processed card operation")
	default:
		log.Warn().Str("type", msgType).Msg("unknown card operation type")
	}
	return nil
}

func (d *Dispatcher) handleCacheOperation(ctx context.Context, msgType string) error {
	switch msgType {
	case queue.TypeClearAll:
		return d.cardsCache.EvictAll(ctx)
	default:
		log.Warn().Str("type", msgType).Msg("unknown cache operation type")
		return nil
	}
}

func (d *Dispatcher) handleNotification(msgType string, payload json.RawMessage) error {
	var p struct {
		Content string `json:"content"`
	}
	_ = json.Unmarshal(payload, &p)

	switch msgType {
	case queue.TypeEmail, queue.TypeSystem:
		log.Info().Str("type", msgType).Str("content", p.Content).Msg("notification sink")
	default:
		log.Warn().Str("type", msgType).Msg("unknown notification type")
	}
	return nil
}
