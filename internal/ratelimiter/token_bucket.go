package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// TokenBucketRateLimiter keeps one x/time/rate limiter per key and forgets
// keys idle for longer than ttl.
type TokenBucketRateLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	entries   map[string]*bucket
	lastEvict time.Time
	now       func() time.Time
}

func NewTokenBucketLimiter(limit rate.Limit, burst int, ttl time.Duration) *TokenBucketRateLimiter {
	return &TokenBucketRateLimiter{
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
		entries: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *TokenBucketRateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.entries[key]
	if b == nil {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = b
	}
	b.lastSeen = now
	l.evict(now)

	if b.lim.AllowN(now, 1) {
		return true, 0
	}
	if l.limit <= 0 {
		return false, l.ttl
	}
	return false, time.Duration(float64(time.Second) / float64(l.limit))
}

// evict forgets idle keys, at most once per ttl. Caller holds the lock.
func (l *TokenBucketRateLimiter) evict(now time.Time) {
	if now.Sub(l.lastEvict) < l.ttl {
		return
	}
	l.lastEvict = now
	for k, v := range l.entries {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.entries, k)
		}
	}
}
