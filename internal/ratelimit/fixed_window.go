package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// counterScript bumps the window counter atomically, arming its expiry on
// first use so an abandoned window cleans itself up.
var counterScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Limiter caps uploads per client in fixed time windows. Counters live in
// Redis, keyed by window slot, so every replica of the service sees the
// same quota.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter connects a limiter allowing limit calls per window.
// An empty prefix selects the upload-quota namespace.
func NewRedisLimiter(addr, password, prefix string, limit int, window time.Duration) (*Limiter, error) {
	if limit <= 0 {
		return nil, errors.New("ratelimit: limit must be positive")
	}
	if window < time.Millisecond {
		return nil, errors.New("ratelimit: window must be at least one millisecond")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("ratelimit: redis addr is required")
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "mailsnap:uploads"
	}
	return &Limiter{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}, nil
}

// Allow reports whether the caller still has quota in the current window.
// Redis errors count as quota exhausted.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return false
	}
	if key = strings.TrimSpace(key); key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	slot := time.Now().UTC().UnixMilli() / windowMs
	counter := fmt.Sprintf("%s:%d:%s", l.prefix, slot, key)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := counterScript.Run(ctx, l.client, []string{counter}, windowMs).Int64()
	if err != nil {
		return false
	}
	return n <= l.limit
}
