package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestBurstThenDeny(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.TryAcquire() {
			t.Fatalf("acquire %d should succeed within the burst", i)
		}
	}
	if l.TryAcquire() {
		t.Error("bucket should be empty after the burst")
	}
}

func TestRefill(t *testing.T) {
	l := NewLimiter(100, 1) // fast refill keeps the test quick

	if !l.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if l.TryAcquire() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.TryAcquire() {
		t.Error("token should have refilled")
	}
}

func TestWaitBlocksUntilToken(t *testing.T) {
	l := NewLimiter(50, 1)
	l.TryAcquire() // drain

	start := time.Now()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait took far longer than the refill interval")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.001, 1) // practically no refill
	l.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err == nil {
		t.Error("Wait must return the context error when cancelled")
	}
}

func TestBucketCapsAtBurstSize(t *testing.T) {
	l := NewLimiter(1000, 2)
	time.Sleep(20 * time.Millisecond)

	if got := l.Available(); got > 2 {
		t.Errorf("Available = %v, bucket must cap at burst size", got)
	}
}
