// Package ratelimit throttles backend calls with a token bucket so
// bulk operations cannot trip the hosted backend's request limits.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket: bursts up to the bucket capacity, then a
// steady refill rate. One token per request.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewLimiter creates a limiter that refills at tokensPerSecond and
// allows bursts up to burstSize. The bucket starts full.
func NewLimiter(tokensPerSecond, burstSize float64) *Limiter {
	return &Limiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// refill adds tokens for the time passed since the last refill.
// Caller must hold mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.lastRefill = now

	l.tokens += elapsed * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
}

// TryAcquire consumes a token if one is available.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

// timeUntilNextToken returns how long until a token becomes available.
func (l *Limiter) timeUntilNextToken() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		return 0
	}
	missing := 1 - l.tokens
	return time.Duration(missing / l.refillRate * float64(time.Second))
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.TryAcquire() {
			return nil
		}

		wait := l.timeUntilNextToken()
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current token count. Test helper.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}
