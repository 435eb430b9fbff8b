package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultMax    = 10
	DefaultWindow = time.Minute
)

// Limiter decides whether another request for key fits in its window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow is a process-local fixed-window counter. Counts are not shared
// between instances; use Redis when the API runs behind a load balancer.
type FixedWindow struct {
	mu      sync.Mutex
	entries map[string]*window
	max     int
	window  time.Duration
	now     func() time.Time
	swept   time.Time
}

func NewFixedWindow(max int, w time.Duration) *FixedWindow {
	if max <= 0 {
		max = DefaultMax
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &FixedWindow{
		entries: make(map[string]*window),
		max:     max,
		window:  w,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

func (l *FixedWindow) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok || !now.Before(e.resetAt) {
		l.entries[key] = &window{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}
	e.count++
	return e.count <= l.max, nil
}

// sweep drops expired windows at most once per window length.
func (l *FixedWindow) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	l.swept = now
	for k, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, k)
		}
	}
}

func (l *FixedWindow) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Redis keeps the counters in redis so every API instance shares them.
type Redis struct {
	rc     *redis.Client
	prefix string
	max    int
	window time.Duration
}

func NewRedis(rc *redis.Client, max int, w time.Duration) *Redis {
	if max <= 0 {
		max = DefaultMax
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &Redis{rc: rc, prefix: "ratelimit:", max: max, window: w}
}

// Allow increments the counter and reads its TTL in one transaction. A
// counter without a TTL, whether new or left behind by a failed expire, gets
// one, so a key can never block its caller for good.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	if ttl.Val() < 0 {
		if err := l.rc.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("pexpire %s: %w", k, err)
		}
	}
	return incr.Val() <= int64(l.max), nil
}
