package audit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper implements Deduper with SET NX EX, giving exactly-once audit
// semantics across handler instances sharing one Redis.
type RedisDeduper struct {
	client redis.Cmdable
}

// NewRedisDeduper wraps a Redis client.
func NewRedisDeduper(client redis.Cmdable) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func (d *RedisDeduper) Seen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	set, err := d.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// MemoryDeduper is the single-process fallback used in tests and when Redis
// is not configured.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) Seen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if expiry, ok := d.seen[key]; ok && now.Before(expiry) {
		return true, nil
	}
	d.seen[key] = now.Add(ttl)
	return false, nil
}
