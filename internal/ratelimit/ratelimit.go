package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	mu         sync.Mutex
	tokens     int
	capacity   int
	rate       int // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a new token bucket with the given rate and capacity
func NewTokenBucket(rate, capacity int) *TokenBucket {
	return &TokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		rate:       rate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can be allowed and consumes a token if available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	// Add tokens based on elapsed time
	tokensToAdd := int(elapsed.Seconds() * float64(tb.rate))
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	// Check if we have tokens available
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// ConnLimiter rate limits accepted connections, globally and per source
// address. A rate of 0 disables that limit.
type ConnLimiter struct {
	mu            sync.Mutex
	global        *TokenBucket
	perSource     map[string]*sourceBucket
	perSourceRate int
	burst         int
}

type sourceBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewConnLimiter creates a connection limiter. globalRate and perSourceRate
// are connections per second; burst is the bucket capacity for both.
func NewConnLimiter(globalRate, perSourceRate, burst int) *ConnLimiter {
	cl := &ConnLimiter{
		perSource:     make(map[string]*sourceBucket),
		perSourceRate: perSourceRate,
		burst:         burst,
	}
	if globalRate > 0 {
		cl.global = NewTokenBucket(globalRate, burst)
	}
	return cl
}

// Allow reports whether a connection from the given source address may
// proceed, consuming tokens from the global and per-source buckets.
func (cl *ConnLimiter) Allow(source string) bool {
	if cl.global != nil && !cl.global.Allow() {
		return false
	}
	if cl.perSourceRate <= 0 {
		return true
	}
	cl.mu.Lock()
	sb, exists := cl.perSource[source]
	if !exists {
		sb = &sourceBucket{bucket: NewTokenBucket(cl.perSourceRate, cl.burst)}
		cl.perSource[source] = sb
	}
	sb.lastSeen = time.Now()
	cl.mu.Unlock()
	return sb.bucket.Allow()
}

// SweepIdle drops per-source buckets that have not been used within maxIdle
// and returns how many were removed.
func (cl *ConnLimiter) SweepIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	cl.mu.Lock()
	defer cl.mu.Unlock()
	removed := 0
	for source, sb := range cl.perSource {
		if sb.lastSeen.Before(cutoff) {
			delete(cl.perSource, source)
			removed++
		}
	}
	return removed
}
