package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implements Client over an in-process store.
type memoryClient struct {
	prefix string
	store  *gocache.Cache

	// go-cache increments are atomic but cannot create-with-TTL in one
	// step, so Increment serializes the create/increment decision.
	mu sync.Mutex
}

// NewMemory builds an in-process cache client.
func NewMemory(prefix string, defaultTTL time.Duration) *memoryClient {
	if defaultTTL <= 0 {
		defaultTTL = 2 * time.Minute
	}
	return &memoryClient{
		prefix: prefix,
		store:  gocache.New(defaultTTL, 5*time.Minute),
	}
}

func (c *memoryClient) key(k string) string {
	if c.prefix == "" {
		return k
	}
	return c.prefix + ":" + k
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.store.Get(c.key(key))
	if !ok {
		return "", ErrNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", ErrNotFound
	}
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	c.store.Set(c.key(key), value, ttl)
	return nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.store.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := c.key(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Add(k, int64(1), ttl); err == nil {
		return 1, nil
	}
	return c.store.IncrementInt64(k, 1)
}

func (c *memoryClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	_, exp, ok := c.store.GetWithExpiration(c.key(key))
	if !ok || exp.IsZero() {
		return -1, nil
	}
	return time.Until(exp), nil
}

func (c *memoryClient) Ping(ctx context.Context) error { return nil }

func (c *memoryClient) Close() error {
	c.store.Flush()
	return nil
}
