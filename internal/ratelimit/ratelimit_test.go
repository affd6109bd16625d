package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucket(t *testing.T) {
	// Test basic token bucket functionality
	bucket := NewTokenBucket(2, 5) // 2 tokens per second, capacity of 5

	// Initial tokens should be at capacity
	for i := 0; i < 5; i++ {
		if !bucket.Allow() {
			t.Errorf("Expected initial request %d to be allowed", i)
		}
	}

	// Next request should be denied (bucket empty)
	if bucket.Allow() {
		t.Error("Expected request to be denied when bucket is empty")
	}

	// Wait and check if tokens are refilled
	time.Sleep(1100 * time.Millisecond) // Wait slightly more than 1 second

	// Should have 2 tokens available now
	if !bucket.Allow() {
		t.Error("Expected request to be allowed after token refill")
	}
	if !bucket.Allow() {
		t.Error("Expected second request to be allowed after token refill")
	}

	// Third request should be denied
	if bucket.Allow() {
		t.Error("Expected third request to be denied")
	}
}

func TestConnLimiterPerSource(t *testing.T) {
	cl := NewConnLimiter(0, 2, 3) // global disabled; 2 conn/s per source, burst 3

	source := "192.0.2.10"

	// Should allow initial burst
	for i := 0; i < 3; i++ {
		if !cl.Allow(source) {
			t.Errorf("Expected connection %d to be allowed for source %s", i, source)
		}
	}

	// Next connection should be denied (per-source limit)
	if cl.Allow(source) {
		t.Error("Expected connection to be denied due to per-source limit")
	}

	// A different source should have its own bucket
	if !cl.Allow("192.0.2.11") {
		t.Error("Expected connection to be allowed for different source")
	}
}

func TestConnLimiterGlobal(t *testing.T) {
	cl := NewConnLimiter(2, 0, 2) // global: 2 conn/s, per-source disabled, burst 2

	if !cl.Allow("192.0.2.10") {
		t.Error("Expected first global connection to be allowed")
	}
	if !cl.Allow("192.0.2.11") {
		t.Error("Expected second global connection to be allowed")
	}

	// Next connection should be denied (global limit)
	if cl.Allow("192.0.2.12") {
		t.Error("Expected connection to be denied due to global limit")
	}
}

func TestConnLimiterSweepIdle(t *testing.T) {
	cl := NewConnLimiter(0, 1, 1)

	cl.Allow("192.0.2.10")
	cl.Allow("192.0.2.11")

	if len(cl.perSource) != 2 {
		t.Errorf("Expected 2 source buckets, got %d", len(cl.perSource))
	}

	// Nothing is idle yet
	if removed := cl.SweepIdle(time.Minute); removed != 0 {
		t.Errorf("Expected no buckets removed, got %d", removed)
	}

	// Everything is idle relative to a zero cutoff
	time.Sleep(10 * time.Millisecond)
	if removed := cl.SweepIdle(time.Nanosecond); removed != 2 {
		t.Errorf("Expected 2 buckets removed, got %d", removed)
	}
	if len(cl.perSource) != 0 {
		t.Errorf("Expected 0 source buckets after sweep, got %d", len(cl.perSource))
	}
}

func TestConnLimiterDisabled(t *testing.T) {
	// Test with all limits disabled (0 = disabled)
	cl := NewConnLimiter(0, 0, 5)

	for i := 0; i < 100; i++ {
		if !cl.Allow("192.0.2.10") {
			t.Errorf("Expected connection %d to be allowed when limits disabled", i)
		}
	}
}
