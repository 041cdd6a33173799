// Package cache provides a small multi-backend cache used for transient
// request-scoped state such as rate-limit counters.
//
// Backends:
//   - memory (in-process, for development and tests)
//   - redis (distributed, for production)
//
// Account and token state never lives here; the repositories are the only
// source of truth for those.
package cache

import (
	"context"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get returns a value. ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with a TTL. A zero ttl means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Increment atomically adds one to an integer counter and returns the
	// new value. A new counter starts at 1 and expires after ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of a key, or a negative duration
	// when the key does not exist or has no expiry.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind       string // "memory" | "redis"
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// IsNotFound reports whether err is a cache miss.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New builds a client for the configured backend. Unknown kinds fall back
// to memory.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	}
}
