package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Chat/internal/domain"
)

const (
	DefaultRateEvents   = 20
	DefaultRateInterval = time.Second
)

// RateLimiter is a sliding window limiter keyed by connection.
type RateLimiter struct {
	mu       sync.Mutex
	history  map[domain.ConnectionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateEvents
	}
	if interval <= 0 {
		interval = DefaultRateInterval
	}
	return &RateLimiter{
		history:  make(map[domain.ConnectionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(id domain.ConnectionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[id]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[id] = fresh
		return false
	}
	rl.history[id] = append(fresh, now)
	return true
}

// Forget drops the connection's history.
func (rl *RateLimiter) Forget(id domain.ConnectionID) {
	rl.mu.Lock()
	delete(rl.history, id)
	rl.mu.Unlock()
}
