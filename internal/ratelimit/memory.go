package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process. Buckets idle for
// longer than idleTTL are evicted on the next call.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idleTTL  time.Duration
	lastGC   time.Time
	now      func() time.Time
}

func NewMemoryLimiter(r float64, burst int) (*MemoryLimiter, error) {
	if r <= 0 || burst <= 0 {
		return nil, errors.New("rate limiter rate and burst must be positive")
	}
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(r),
		burst:    burst,
		idleTTL:  bucketTTL(r, burst),
		now:      time.Now,
	}, nil
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	if key == "" {
		return Result{}, errors.New("rate limiter key is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evict(now)

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	result := Result{
		Allowed:   allowed,
		Limit:     m.burst,
		Remaining: int(v.limiter.TokensAt(now)),
	}
	if !allowed {
		result.RetryAfter = retryAfter(v.limiter.TokensAt(now), float64(m.rate))
	}
	return result, nil
}

func (m *MemoryLimiter) evict(now time.Time) {
	if now.Sub(m.lastGC) < m.idleTTL {
		return
	}
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idleTTL {
			delete(m.visitors, key)
		}
	}
	m.lastGC = now
}
