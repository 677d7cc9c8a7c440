package ratelimit

import (
	"sync"
	"time"
)

// Limiter is the admission-control surface used by the bot pipeline.
// Implementations must be safe for concurrent use and must never fail:
// Allow always returns a definite answer.
type Limiter interface {
	// Allow records the request and reports whether it is admitted.
	Allow(userID int64) bool
	// Remaining reports how many requests the user can still make in the
	// current window. Never negative.
	Remaining(userID int64) int
	// Reset clears the window for one user.
	Reset(userID int64)
	// ResetAll clears every tracked window.
	ResetAll()
}

// SlidingWindow limits each user to `limit` requests per `window`, counting
// actual request timestamps rather than refilling tokens. Old timestamps are
// pruned lazily on access.
type SlidingWindow struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests map[int64][]time.Time
	now      func() time.Time
}

// NewSlidingWindow creates an in-process sliding-window limiter.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:    limit,
		window:   window,
		requests: make(map[int64][]time.Time),
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *SlidingWindow) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.prune(userID, now)
	if len(kept) >= l.limit {
		return false
	}
	l.requests[userID] = append(kept, now)
	return true
}

// Remaining implements Limiter.
func (l *SlidingWindow) Remaining(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(userID, l.now())
	l.requests[userID] = kept
	if remaining := l.limit - len(kept); remaining > 0 {
		return remaining
	}
	return 0
}

// Reset implements Limiter.
func (l *SlidingWindow) Reset(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, userID)
}

// ResetAll implements Limiter.
func (l *SlidingWindow) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = make(map[int64][]time.Time)
}

// prune drops timestamps older than the window. Caller must hold the lock.
func (l *SlidingWindow) prune(userID int64, now time.Time) []time.Time {
	timestamps := l.requests[userID]
	cutoff := now.Add(-l.window)
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.requests, userID)
		return nil
	}
	return kept
}
