package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/ai-chat/internal/logger"
)

// Redis is a Limiter shared by every process using the same Redis instance.
// Windows are aligned to multiples of the window length.
type Redis struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
	log    *logger.Logger
	now    func() time.Time
}

func NewRedis(client *redis.Client, max int, w time.Duration, log *logger.Logger) *Redis {
	if max <= 0 {
		max = DefaultMax
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &Redis{
		client: client,
		prefix: "ratelimit:",
		max:    max,
		window: w,
		log:    log.With("component", "ratelimit.redis"),
		now:    time.Now,
	}
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// Allow fails open: if Redis is unavailable the request is admitted.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	now := r.now()
	start := now.Truncate(r.window)
	resetAt := start.Add(r.window)
	k := r.prefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, r.window+time.Second)
		return nil
	})
	if err != nil {
		r.log.Warn("rate limit check failed, allowing request", "key", key, "error", err)
		return Result{Allowed: true, Limit: r.max, Remaining: r.max, ResetAt: resetAt}, nil
	}

	count := int(incr.Val())
	res := Result{Limit: r.max, ResetAt: resetAt}
	if count > r.max {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = r.max - count
	return res, nil
}
