package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis scripts run the prune-then-act sequence atomically so that Allow
// calls for one user stay linearizable across bot instances.
var (
	allowScript = redis.NewScript(`
		redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
		local count = redis.call('ZCARD', KEYS[1])
		if count < tonumber(ARGV[2]) then
			redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
			redis.call('PEXPIRE', KEYS[1], ARGV[5])
			return 1
		end
		return 0
	`)

	remainingScript = redis.NewScript(`
		redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
		return redis.call('ZCARD', KEYS[1])
	`)
)

// RedisLimiter implements Limiter on a Redis sorted set per user, for
// deployments running more than one bot process. Semantics match
// SlidingWindow; on Redis errors it fails open and logs, because dropping a
// customer message over a limiter outage is worse than admitting one extra.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewRedisLimiter creates a Redis-backed sliding-window limiter.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "ratelimit:user:",
		logger: logger,
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(userID int64) string {
	return fmt.Sprintf("%s%d", l.prefix, userID)
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(userID int64) bool {
	now := l.now()
	cutoff := now.Add(-l.window).UnixNano()
	member := fmt.Sprintf("%d", now.UnixNano())

	res, err := allowScript.Run(context.Background(), l.client,
		[]string{l.key(userID)},
		cutoff, l.limit, now.UnixNano(), member, l.window.Milliseconds(),
	).Int()
	if err != nil {
		l.logger.Error("rate limiter allow failed, failing open", "user_id", userID, "error", err)
		return true
	}
	return res == 1
}

// Remaining implements Limiter.
func (l *RedisLimiter) Remaining(userID int64) int {
	now := l.now()
	cutoff := now.Add(-l.window).UnixNano()

	count, err := remainingScript.Run(context.Background(), l.client,
		[]string{l.key(userID)}, cutoff,
	).Int()
	if err != nil {
		l.logger.Error("rate limiter remaining failed", "user_id", userID, "error", err)
		return l.limit
	}
	if remaining := l.limit - count; remaining > 0 {
		return remaining
	}
	return 0
}

// Reset implements Limiter.
func (l *RedisLimiter) Reset(userID int64) {
	if err := l.client.Del(context.Background(), l.key(userID)).Err(); err != nil {
		l.logger.Error("rate limiter reset failed", "user_id", userID, "error", err)
	}
}

// ResetAll implements Limiter.
func (l *RedisLimiter) ResetAll() {
	ctx := context.Background()
	iter := l.client.Scan(ctx, 0, l.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			l.logger.Error("rate limiter reset-all delete failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		l.logger.Error("rate limiter reset-all scan failed", "error", err)
	}
}
