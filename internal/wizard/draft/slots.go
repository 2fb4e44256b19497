package draft

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Slots is the key/value storage a Store writes drafts to.
type Slots interface {
	// GetItem returns the stored value and whether the slot is occupied.
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// MemorySlots keeps drafts in process memory. Used in tests and local runs.
type MemorySlots struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemorySlots() *MemorySlots {
	return &MemorySlots{items: make(map[string]string)}
}

func (m *MemorySlots) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemorySlots) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemorySlots) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// RedisSlots stores drafts as Redis strings. A zero TTL keeps them until discarded.
type RedisSlots struct {
	client redis.Cmdable
	ttl    time.Duration
}

// RedisSlotsOption configures a RedisSlots instance.
type RedisSlotsOption func(*RedisSlots)

// WithTTL expires drafts that are not saved again within ttl.
func WithTTL(ttl time.Duration) RedisSlotsOption {
	return func(r *RedisSlots) {
		r.ttl = ttl
	}
}

func NewRedisSlots(client redis.Cmdable, opts ...RedisSlotsOption) *RedisSlots {
	r := &RedisSlots{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *RedisSlots) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetItem uses SET with expiry so value and TTL are written together.
func (r *RedisSlots) SetItem(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *RedisSlots) RemoveItem(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
