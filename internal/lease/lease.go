package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease keeps replicas from syncing the same window twice. The holder is
// whichever instance wins SET NX on the shared key; the TTL equals the sync
// interval, so the lock expires on its own by the time the next window
// opens. The lease is never released early.
type Lease struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func New(rdb *redis.Client, key string, ttl time.Duration) *Lease {
	return &Lease{rdb: rdb, key: key, ttl: ttl}
}

// TryAcquire reports whether this instance owns the coming cycle. A nil
// receiver or client means no coordination store is configured and every
// call succeeds.
func (l *Lease) TryAcquire(ctx context.Context, cycleID string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	ok, err := l.rdb.SetNX(ctx, l.key, cycleID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	return ok, nil
}

// Holder returns the cycle id that currently owns the lease, or empty when
// the lease is free.
func (l *Lease) Holder(ctx context.Context) (string, error) {
	if l == nil || l.rdb == nil {
		return "", nil
	}

	v, err := l.rdb.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read lease %s: %w", l.key, err)
	}
	return v, nil
}
