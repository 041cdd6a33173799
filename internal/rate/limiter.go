// Package rate implements a fixed-window request limiter over the cache
// backends. Used by the HTTP layer to throttle login and password-reset
// traffic per client; it is independent of the per-account lockout.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gussmann/loyalty-auth/internal/cache"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// FixedWindow counts hits per key inside aligned windows (INCR + EXPIRE).
// With the Redis cache backend the window is shared across instances.
type FixedWindow struct {
	Cache  cache.Client
	Prefix string
	Max    int64
	Window time.Duration
}

func NewFixedWindow(c cache.Client, prefix string, max int, window time.Duration) *FixedWindow {
	if prefix == "" {
		prefix = "rl"
	}
	return &FixedWindow{
		Cache:  c,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
	}
}

func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	winStart := time.Now().UTC().Truncate(l.Window)
	counterKey := fmt.Sprintf("%s:%s:%d", l.Prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, err := l.Cache.Increment(ctx, counterKey, l.Window)
	if err != nil {
		return Result{}, err
	}

	remaining := l.Max - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     hits <= l.Max,
		Remaining:   remaining,
		CurrentHits: hits,
	}
	if !res.Allowed {
		// Retry after the rest of the window.
		ttl, terr := l.Cache.TTL(ctx, counterKey)
		if terr != nil || ttl < 0 {
			ttl = l.Window
		}
		res.RetryAfter = ttl
	}
	return res, nil
}
