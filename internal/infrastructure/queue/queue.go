// Package queue implements the named FIFO work queues (C5) that
// decouple request handling from side effects like cache maintenance
// and notification delivery. Queues are plain Redis lists accessed
// through the coordination client; delivery is destructive and
// at-most-once in practice (documented tradeoff, not a bug).
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cardvault-backend/internal/infrastructure/coordination"
)

const keyPrefix = "yugioh:queue:"

// Named queues drained by the background dispatcher (C6).
const (
	QueueCardOperations  = "card-operations"
	QueueCacheOperations = "cache-operations"
	QueueNotifications   = "notifications"
)

// Known message types. Anything else is logged and dropped by the
// dispatcher.
const (
	TypeCardCreated = "CARD_CREATED"
	TypeCardUpdated = "CARD_UPDATED"
	TypeCardDeleted = "CARD_DELETED"
	TypeClearAll    = "CLEAR_ALL"
	TypeEmail       = "EMAIL"
	TypeSystem      = "SYSTEM"
)

// Envelope is the wire shape of every queued message.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

type Queue struct {
	coord *coordination.Client
}

func New(coord *coordination.Client) *Queue {
	return &Queue{coord: coord}
}

func keyFor(name string) string {
	return keyPrefix + name
}

// Enqueue serializes payload into an envelope and pushes it onto the
// head of the named queue.
func (q *Queue) Enqueue(ctx context.Context, name, msgType string, payload interface{}, at time.Time) error {
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue: marshal payload: %w", err)
	}

	env := Envelope{Type: msgType, Payload: rawPayload, Timestamp: at.UnixMilli()}
	rawEnv, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	return q.coord.ListPushLeft(ctx, keyFor(name), string(rawEnv))
}

// DequeueBlocking waits up to 10s for a message, returning ok=false
// on timeout.
func (q *Queue) DequeueBlocking(ctx context.Context, name string) (*Envelope, bool, error) {
	raw, ok, err := q.coord.ListPopRightBlocking(ctx, keyFor(name), 10*time.Second)
	if err != nil || !ok {
		return nil, ok, err
	}
	return decode(raw)
}

// DequeueNonBlocking pops the tail immediately, returning ok=false if
// the queue is empty. This is what the background dispatcher polls
// with every cycle.
func (q *Queue) DequeueNonBlocking(ctx context.Context, name string) (*Envelope, bool, error) {
	raw, ok, err := q.coord.ListPopRightNonblocking(ctx, keyFor(name))
	if err != nil || !ok {
		return nil, ok, err
	}
	return decode(raw)
}

// Peek returns every message currently queued, oldest-enqueued last,
// without removing anything.
func (q *Queue) Peek(ctx context.Context, name string) ([]Envelope, error) {
	raws, err := q.coord.ListRange(ctx, keyFor(name))
	if err != nil {
		return nil, err
	}
	envs := make([]Envelope, 0, len(raws))
	for _, raw := range raws {
		var env Envelope
		if jsonErr := json.Unmarshal([]byte(raw), &env); jsonErr != nil {
			continue
		}
		envs = append(envs, env)
	}
	return envs, nil
}

func (q *Queue) Len(ctx context.Context, name string) (int64, error) {
	return q.coord.ListLen(ctx, keyFor(name))
}

func (q *Queue) Clear(ctx context.Context, name string) error {
	return q.coord.Del(ctx, keyFor(name))
}

func decode(raw string) (*Envelope, bool, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, false, fmt.Errorf("queue: decode envelope: %w", err)
	}
	return &env, true, nil
}
