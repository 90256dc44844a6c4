package cache

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// versionKey is shared between all workers of one storefront.
const versionKey = "slask-filter:cache-version"

// versionReadInterval is how long a worker may reuse its last read of
// the shared stamp before asking redis again.
const versionReadInterval = 5 * time.Second

// Version holds the global cache version stamp. Every cache key
// incorporates the current stamp, so bumping it makes all prior
// entries unreachable without any active sweep. The invalidator is the
// sole writer.
type Version struct {
	mu      sync.Mutex
	client  *redis.Client
	ctx     context.Context
	current int64
	readAt  time.Time
}

// NewVersion creates the stamp service. client may be nil, in which
// case the stamp is process local.
func NewVersion(client *redis.Client) *Version {
	v := &Version{
		client:  client,
		ctx:     context.Background(),
		current: time.Now().UnixNano(),
	}
	v.refresh()
	return v
}

func (v *Version) refresh() {
	if v.client == nil {
		return
	}
	raw, err := v.client.Get(v.ctx, versionKey).Result()
	if err == redis.Nil {
		if err = v.client.Set(v.ctx, versionKey, strconv.FormatInt(v.current, 10), 0).Err(); err != nil {
			log.Printf("failed to seed cache version: %v", err)
		}
		v.readAt = time.Now()
		return
	}
	if err != nil {
		log.Printf("failed to read cache version: %v", err)
		return
	}
	if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > v.current {
		v.current = parsed
	}
	v.readAt = time.Now()
}

// Current returns the stamp to use for cache keys built in this
// request. Reads of the shared value are rate limited, a worker may
// serve keys up to versionReadInterval stale.
func (v *Version) Current() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.client != nil && time.Since(v.readAt) > versionReadInterval {
		v.refresh()
	}
	return v.current
}

// Bump advances the stamp. Uses the wall clock so the new value is
// monotonically above any previously issued stamp.
func (v *Version) Bump() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	next := time.Now().UnixNano()
	if next <= v.current {
		next = v.current + 1
	}
	v.current = next
	v.readAt = time.Now()
	if v.client != nil {
		if err := v.client.Set(v.ctx, versionKey, strconv.FormatInt(next, 10), 0).Err(); err != nil {
			log.Printf("failed to store cache version: %v", err)
		}
	}
	return next
}
