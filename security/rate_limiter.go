package security

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	cleanup  *time.Timer
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
	rl.startCleanup()
	return rl
}

func (rl *RateLimiter) Allow(key string, config RateLimitConfig) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
		rl.limiters[key] = limiter
	}

	return limiter.Allow()
}

// startCleanup drops limiters that have fully refilled; idle callers stop
// costing memory.
func (rl *RateLimiter) startCleanup() {
	rl.cleanup = time.AfterFunc(5*time.Minute, func() {
		rl.mu.Lock()
		defer rl.mu.Unlock()

		now := time.Now()
		for key, limiter := range rl.limiters {
			if limiter.TokensAt(now) >= float64(limiter.Burst()) {
				delete(rl.limiters, key)
			}
		}

		rl.startCleanup()
	})
}

func (rl *RateLimiter) Close() {
	if rl.cleanup != nil {
		rl.cleanup.Stop()
	}
}
