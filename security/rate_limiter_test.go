package security

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Close()

	t.Run("Allow within limit", func(t *testing.T) {
		config := RateLimitConfig{RequestsPerSecond: 10, Burst: 10}
		key := "webhook-1"
		for i := 0; i < 10; i++ {
			if !limiter.Allow(key, config) {
				t.Errorf("Request %d should be allowed", i+1)
			}
		}
	})

	t.Run("Block after limit", func(t *testing.T) {
		config := RateLimitConfig{RequestsPerSecond: 5, Burst: 5}
		key := "webhook-2"

		for i := 0; i < 5; i++ {
			limiter.Allow(key, config)
		}

		if limiter.Allow(key, config) {
			t.Error("Request should be blocked after burst is spent")
		}
	})

	t.Run("Keys are independent", func(t *testing.T) {
		config := RateLimitConfig{RequestsPerSecond: 1, Burst: 1}

		limiter.Allow("client-a", config)
		if !limiter.Allow("client-b", config) {
			t.Error("client-b should not be throttled by client-a's usage")
		}
	})
}

func TestRateLimiter_Refill(t *testing.T) {
	limiter := NewRateLimiter()
	defer limiter.Close()

	key := "refill"
	config := RateLimitConfig{RequestsPerSecond: 10, Burst: 2}

	limiter.Allow(key, config)
	limiter.Allow(key, config)

	if limiter.Allow(key, config) {
		t.Error("Request should be blocked with empty bucket")
	}

	time.Sleep(150 * time.Millisecond)

	if !limiter.Allow(key, config) {
		t.Error("Request should be allowed after refill")
	}
}
