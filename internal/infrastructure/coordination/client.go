// Package coordination wraps the Redis client with the small set of
// operations every other infrastructure component (cache, lock, rate
// limiter, queue) is built from: SET-if-absent, list push/pop, and
// counters. Nothing above this package talks to go-redis directly.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TransientError wraps any failure to reach the coordination store,
// letting callers distinguish "the store said no" (e.g. key exists)
// from "the store is unreachable" and choose to fail open or closed.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("coordination: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func transientErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// Client is a thin adapter over *redis.Client.
type Client struct {
	rdb *redis.Client
}

func New(host, password string, db int) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:         host,
			Password:     password,
			DB:           db,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return transientErr("connect", err)
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return transientErr("health_check", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetIfAbsent is Redis SETNX with a TTL: it sets key to value only if
// key doesn't already exist, returning true on success. Used by the
// distributed lock (C3).
func (c *Client) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, transientErr("set_if_absent", err)
	}
	return ok, nil
}

func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, transientErr("get", err)
	}
	return val, true, nil
}

func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return transientErr("set", err)
	}
	return nil
}

// Del removes one or more keys. Deleting a key that doesn't exist is
// not an error (mirrors Redis DEL semantics).
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return transientErr("del", err)
	}
	return nil
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, transientErr("exists", err)
	}
	return n > 0, nil
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return transientErr("expire", err)
	}
	return nil
}

func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, transientErr("ttl", err)
	}
	return d, nil
}

// Incr increments key by 1, creating it at 1 if absent.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, transientErr("incr", err)
	}
	return n, nil
}

// SAdd/SMembers back the cache namespace's key-membership tracking
// (C2's EvictAll needs to know every key it put into a namespace).
func (c *Client) SAdd(ctx context.Context, key string, member string) error {
	if err := c.rdb.SAdd(ctx, key, member).Err(); err != nil {
		return transientErr("sadd", err)
	}
	return nil
}

func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, transientErr("smembers", err)
	}
	return members, nil
}

// ListPushLeft pushes value onto the head of a list, used by
// producers enqueuing work (C5).
func (c *Client) ListPushLeft(ctx context.Context, key, value string) error {
	if err := c.rdb.LPush(ctx, key, value).Err(); err != nil {
		return transientErr("list_push_left", err)
	}
	return nil
}

// ListPopRightBlocking pops the tail of a list, blocking up to
// timeout for an item to arrive. Returns ok=false on timeout, never
// on a genuine error (which is returned instead).
func (c *Client) ListPopRightBlocking(ctx context.Context, key string, timeout time.Duration) (string, bool, error) {
	result, err := c.rdb.BRPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, transientErr("list_pop_right_blocking", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return "", false, nil
	}
	return result[1], true, nil
}

// ListPopRightNonblocking pops the tail of a list immediately,
// returning ok=false if the list is empty. This is the destructive,
// no-redelivery pop the background dispatcher (C6) polls with.
func (c *Client) ListPopRightNonblocking(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.RPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, transientErr("list_pop_right_nonblocking", err)
	}
	return val, true, nil
}

// ListRange returns the full contents of a list without removing
// anything, oldest-enqueued last (LPUSH/RPOP order).
func (c *Client) ListRange(ctx context.Context, key string) ([]string, error) {
	vals, err := c.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, transientErr("list_range", err)
	}
	return vals, nil
}

func (c *Client) ListLen(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, transientErr("list_len", err)
	}
	return n, nil
}
