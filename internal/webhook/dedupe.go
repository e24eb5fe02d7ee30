package webhook

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper guards against duplicate webhook deliveries. MarkIfNew
// returns true when the event ID has not been seen before.
type Deduper interface {
	MarkIfNew(ctx context.Context, eventID string) (bool, error)
}

// DedupeKey scopes the replay guard to the full event identity.
// Different event types legitimately share one conversation space id:
// the call report and its later recording notifications must not
// suppress each other, only true redeliveries of the same event.
func DedupeKey(source, eventType, eventID string) string {
	return source + ":" + eventType + ":" + eventID
}

// RedisDeduper implements Deduper on a shared Redis instance so all
// replicas agree on what has been processed. SET NX with a TTL makes
// the check-and-mark atomic.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a Redis-backed deduper.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

// MarkIfNew atomically records the event ID, reporting whether it was new.
func (d *RedisDeduper) MarkIfNew(ctx context.Context, eventID string) (bool, error) {
	return d.client.SetNX(ctx, "webhook:dedupe:"+eventID, 1, d.ttl).Result()
}

// MemoryDeduper is the single-process fallback when Redis is not
// configured. It keeps a bounded FIFO of recent event IDs; when the cap
// is reached the oldest entry is evicted.
type MemoryDeduper struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
	cap   int
}

const memoryDeduperCap = 10000

// NewMemoryDeduper creates an in-memory deduper with the default capacity.
func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[string]struct{}, memoryDeduperCap),
		cap:  memoryDeduperCap,
	}
}

// MarkIfNew records the event ID, reporting whether it was new.
func (d *MemoryDeduper) MarkIfNew(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}

	if len(d.order) >= d.cap {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}

	d.seen[eventID] = struct{}{}
	d.order = append(d.order, eventID)
	return true, nil
}
