// Package throttle provides a Redis-backed fixed-window counter used to
// slow down online guessing against password and one-time-code checks.
package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts failures per key and reports when a key exceeds its budget.
type Limiter interface {
	// Allow reports whether the key is still under its failure budget.
	Allow(ctx context.Context, key string) (bool, error)
	// Fail records one more failure for the key.
	Fail(ctx context.Context, key string) error
	// Reset clears the failure count for the key, typically after success.
	Reset(ctx context.Context, key string) error
}

// FixedWindow implements Limiter with one Redis counter per key that
// expires at the end of the window.
type FixedWindow struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

const (
	defaultLimit  = 5
	defaultWindow = 15 * time.Minute
)

// New creates a FixedWindow limiter. Non-positive limit or window fall
// back to 5 failures per 15 minutes.
func New(client *redis.Client, limit int64, window time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}

	return &FixedWindow{
		client: client,
		prefix: "throttle:",
		limit:  limit,
		window: window,
	}
}

// Allow reports whether the key is still under its failure budget. A key
// with no recorded failures is always allowed.
func (f *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	count, err := f.client.Get(ctx, f.prefix+key).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	return count < f.limit, nil
}

// Fail records one more failure for the key. The window TTL is set when
// the counter is created and refreshed on each failure, so a persistent
// attacker stays locked out until they back off.
func (f *FixedWindow) Fail(ctx context.Context, key string) error {
	fk := f.prefix + key

	pipe := f.client.TxPipeline()
	pipe.Incr(ctx, fk)
	pipe.Expire(ctx, fk, f.window)

	_, err := pipe.Exec(ctx)

	return err
}

// Reset clears the failure count for the key.
func (f *FixedWindow) Reset(ctx context.Context, key string) error {
	return f.client.Del(ctx, f.prefix+key).Err()
}
