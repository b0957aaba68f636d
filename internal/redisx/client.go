package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Deduper remembers processed event ids per consuming service so redelivered
// bus messages are skipped before their handler runs. The stores stay the
// source of truth; this is only the fast path.
type Deduper struct {
	Client *redis.Client
	TTL    time.Duration
}

func (d *Deduper) Seen(ctx context.Context, scope, eventID string) (bool, error) {
	n, err := d.Client.Exists(ctx, fmt.Sprintf(KeyDedup, scope, eventID)).Result()
	return n > 0, err
}

func (d *Deduper) Mark(ctx context.Context, scope, eventID string) error {
	return d.Client.Set(ctx, fmt.Sprintf(KeyDedup, scope, eventID), "1", d.TTL).Err()
}
