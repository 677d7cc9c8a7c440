package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func newTestLimiter(limit int, window time.Duration) (*SlidingWindow, *time.Time) {
	l := NewSlidingWindow(limit, window)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestSlidingWindowAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !l.Allow(42) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(42) {
		t.Fatal("request over the limit should be denied")
	}
}

func TestSlidingWindowRemaining(t *testing.T) {
	l, _ := newTestLimiter(5, time.Minute)

	if got := l.Remaining(42); got != 5 {
		t.Fatalf("fresh user remaining = %d, want 5", got)
	}
	for i := 0; i < 3; i++ {
		l.Allow(42)
	}
	if got := l.Remaining(42); got != 2 {
		t.Fatalf("remaining after 3 requests = %d, want 2", got)
	}
	for i := 0; i < 10; i++ {
		l.Allow(42)
	}
	if got := l.Remaining(42); got != 0 {
		t.Fatalf("remaining past the limit = %d, want 0", got)
	}
}

func TestSlidingWindowExpiry(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	if !l.Allow(7) || !l.Allow(7) {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow(7) {
		t.Fatal("third request inside the window should be denied")
	}

	*clock = clock.Add(61 * time.Second)
	if !l.Allow(7) {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestSlidingWindowReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	l.Allow(1)
	l.Allow(2)
	if l.Allow(1) {
		t.Fatal("user 1 should be limited")
	}

	l.Reset(1)
	if !l.Allow(1) {
		t.Fatal("user 1 should be allowed after reset")
	}
	if l.Allow(2) {
		t.Fatal("reset of user 1 must not affect user 2")
	}

	l.ResetAll()
	if !l.Allow(1) || !l.Allow(2) {
		t.Fatal("all users should be allowed after ResetAll")
	}
}

func TestSlidingWindowIsolatesUsers(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	if !l.Allow(1) {
		t.Fatal("user 1 first request should be allowed")
	}
	if !l.Allow(2) {
		t.Fatal("user 2 must have an independent window")
	}
}

func TestSlidingWindowConcurrentAllow(t *testing.T) {
	l := NewSlidingWindow(100, time.Minute)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow(99)
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Fatalf("exactly limit requests must be admitted, got %d", count)
	}
}
