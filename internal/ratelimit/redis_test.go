package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisTestLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, limit, window, nil), mr
}

func TestRedisLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newRedisTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow(42) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(42) {
		t.Fatal("request over the limit should be denied")
	}
}

func TestRedisLimiterRemaining(t *testing.T) {
	l, _ := newRedisTestLimiter(t, 5, time.Minute)

	if got := l.Remaining(42); got != 5 {
		t.Fatalf("fresh user remaining = %d, want 5", got)
	}
	l.Allow(42)
	l.Allow(42)
	if got := l.Remaining(42); got != 3 {
		t.Fatalf("remaining after 2 requests = %d, want 3", got)
	}
}

func TestRedisLimiterWindowExpiry(t *testing.T) {
	l, _ := newRedisTestLimiter(t, 1, time.Minute)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	l.now = func() time.Time { return current }

	if !l.Allow(7) {
		t.Fatal("first request should be allowed")
	}
	if l.Allow(7) {
		t.Fatal("second request inside the window should be denied")
	}

	current = base.Add(61 * time.Second)
	if !l.Allow(7) {
		t.Fatal("request after the window elapsed should be allowed")
	}
}

func TestRedisLimiterReset(t *testing.T) {
	l, _ := newRedisTestLimiter(t, 1, time.Minute)

	l.Allow(1)
	if l.Allow(1) {
		t.Fatal("user 1 should be limited")
	}
	l.Reset(1)
	if !l.Allow(1) {
		t.Fatal("user 1 should be allowed after reset")
	}
}

func TestRedisLimiterResetAll(t *testing.T) {
	l, _ := newRedisTestLimiter(t, 1, time.Minute)

	l.Allow(1)
	l.Allow(2)
	l.ResetAll()
	if !l.Allow(1) || !l.Allow(2) {
		t.Fatal("all users should be allowed after ResetAll")
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLimiter(client, 1, time.Minute, nil)
	mr.Close()
	_ = client.Close()

	if !l.Allow(1) {
		t.Fatal("limiter must fail open when redis is unreachable")
	}
}
