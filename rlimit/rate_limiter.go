package rlimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimiter hands out one token bucket per key, such as a phone number.
// Buckets that have not been used for ttl are forgotten.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	clock    clockwork.Clock

	ttl        time.Duration
	gcInterval time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

type Option func(m *RateLimiter)

func WithClock(clock clockwork.Clock) Option {
	return func(m *RateLimiter) {
		m.clock = clock
	}
}

func NewRateLimiter(limit rate.Limit, burst int, ttl, gcInterval time.Duration, opts ...Option) *RateLimiter {
	m := &RateLimiter{
		limiters:   make(map[string]*entry),
		limit:      limit,
		burst:      burst,
		clock:      clockwork.NewRealClock(),
		ttl:        ttl,
		gcInterval: gcInterval,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if ttl > 0 && gcInterval > 0 {
		go m.startGC()
	}
	return m
}

// Wait blocks until key may proceed or ctx is done.
func (m *RateLimiter) Wait(ctx context.Context, key string) error {
	return m.get(key).Wait(ctx)
}

// Allow reports whether key may proceed now, consuming a token if so.
func (m *RateLimiter) Allow(key string) bool {
	return m.get(key).Allow()
}

// Stop ends the garbage collection goroutine.
func (m *RateLimiter) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *RateLimiter) get(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e, ok := m.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.limiters[key] = e
	}
	e.seen = now
	return e.limiter
}

func (m *RateLimiter) startGC() {
	ticker := m.clock.NewTicker(m.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.Chan():
			m.collect(m.clock.Now())
		case <-m.stop:
			return
		}
	}
}

func (m *RateLimiter) collect(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.limiters {
		if now.Sub(e.seen) > m.ttl {
			delete(m.limiters, key)
		}
	}
}

func (m *RateLimiter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}
