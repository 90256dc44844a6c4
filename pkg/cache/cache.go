package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when no live entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Store is the read-through cache contract the engine depends on.
// Entries are value-encoded so callers always get their own copy.
type Store interface {
	Get(key string, out any) error
	Set(key string, value any, ttl time.Duration) error
	Delete(key string) error
	Close() error
}

type localEntry struct {
	expires time.Time
	data    []byte
}

// MemoryStore is a single tier in-process store. Sufficient for a
// single worker deployment and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]localEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]localEntry{}}
}

func (m *MemoryStore) Get(key string, out any) error {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()
	if !found {
		return ErrNotFound
	}
	if time.Now().After(entry.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return ErrNotFound
	}
	return sonic.Unmarshal(entry.data, out)
}

func (m *MemoryStore) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[key] = localEntry{expires: time.Now().Add(ttl), data: data}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// maxLocalTTL bounds how long the fast tier may lag behind the redis
// tier after another worker overwrites an entry.
const maxLocalTTL = time.Minute

// TieredStore keeps a small in-process tier in front of redis. The
// local tier is bounded by maxLocalTTL, redis holds the full TTL.
type TieredStore struct {
	mu     sync.RWMutex
	local  map[string]localEntry
	client *redis.Client
	ctx    context.Context
}

func NewTieredStore(addr, password string, db int) *TieredStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &TieredStore{
		local:  map[string]localEntry{},
		client: client,
		ctx:    context.Background(),
	}
}

// Client exposes the underlying redis client so the version stamp can
// share the connection.
func (c *TieredStore) Client() *redis.Client {
	return c.client
}

func (c *TieredStore) Get(key string, out any) error {
	c.mu.RLock()
	entry, found := c.local[key]
	c.mu.RUnlock()
	if found && time.Now().Before(entry.expires) {
		return sonic.Unmarshal(entry.data, out)
	}
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.local[key] = localEntry{expires: time.Now().Add(maxLocalTTL), data: data}
	c.mu.Unlock()
	return sonic.Unmarshal(data, out)
}

func (c *TieredStore) Set(key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	localTTL := ttl
	if localTTL > maxLocalTTL {
		localTTL = maxLocalTTL
	}
	c.mu.Lock()
	c.local[key] = localEntry{expires: time.Now().Add(localTTL), data: data}
	c.mu.Unlock()
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

func (c *TieredStore) Delete(key string) error {
	c.mu.Lock()
	delete(c.local, key)
	c.mu.Unlock()
	return c.client.Del(c.ctx, key).Err()
}

func (c *TieredStore) Close() error {
	return c.client.Close()
}
