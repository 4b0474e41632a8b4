// Package cache is an optional page cache for the browser tool. The redis
// store is used when an address is configured; otherwise an in-memory map
// with TTL eviction serves the same interface.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// New returns a redis-backed store when addr is non-empty and reachable,
// falling back to the in-memory store otherwise.
func New(ctx context.Context, addr string, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err == nil {
			return &redisStore{client: rdb, ttl: ttl}
		}
	}
	return NewMemory(ttl)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.client.Get(ctx, "page:"+key).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) {
	_ = s.client.Set(ctx, "page:"+key, value, s.ttl).Err()
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: map[string]memoryEntry{}, ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(m.ttl)}
	m.mu.Unlock()
}
