package ratelimiter

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter counts requests per key inside windows that start
// at the key's first request.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients   map[string]*window
	limit     int
	window    time.Duration
	lastEvict time.Time
	now       func() time.Time
}

func NewFixedWindowLimiter(limit int, w time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  w,
		now:     time.Now,
	}
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rl.Lock()
	defer rl.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.evict(now)
		w = &window{start: now}
		rl.clients[key] = w
	}

	if w.count < rl.limit {
		w.count++
		return true, 0
	}
	return false, rl.window - now.Sub(w.start)
}

// evict drops windows that have already closed, at most once per window.
// Caller holds the lock.
func (rl *FixedWindowRateLimiter) evict(now time.Time) {
	if now.Sub(rl.lastEvict) < rl.window {
		return
	}
	rl.lastEvict = now
	for k, w := range rl.clients {
		if now.Sub(w.start) >= rl.window {
			delete(rl.clients, k)
		}
	}
}
