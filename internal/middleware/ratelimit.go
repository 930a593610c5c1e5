package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/tenx-cards/core/internal/pkg/metrics"
	"github.com/tenx-cards/core/internal/pkg/redis"
	"github.com/tenx-cards/core/internal/pkg/response"
	"go.uber.org/zap"
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

func windowKey(prefix, key string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%d", prefix, key, now.UnixNano()/int64(window))
}

// RedisLimiter shares counters between server processes.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: int64(limit), window: window, prefix: "cards:rate_limit"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Incr(ctx, windowKey(l.prefix, key, time.Now(), l.window), l.window+time.Second)
	if err != nil {
		return true, err
	}
	return count <= l.limit, nil
}

// MemoryLimiter keeps counters in process. Used when redis is disabled.
type MemoryLimiter struct {
	store  *cache.Cache
	limit  int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		store:  cache.New(window+time.Second, 2*window),
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	k := windowKey("mem", key, l.now(), l.window)
	// Add fails when the key exists; the increment below handles both cases
	_ = l.store.Add(k, int64(0), l.window+time.Second)
	count, err := l.store.IncrementInt64(k, 1)
	if err != nil {
		l.store.Set(k, int64(1), l.window+time.Second)
		count = 1
	}
	return count <= l.limit, nil
}

// RateLimit rejects requests over the limiter's budget with 429. Counters are
// keyed by user id and client IP. Limiter errors let the request through.
func RateLimit(limiter Limiter, window time.Duration, m *metrics.Metrics, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := UserID(c) + ":" + c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			m.RecordRateLimited(c.FullPath())
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.TooManyRequests(c, "Too many generation requests, try again shortly")
			return
		}

		c.Next()
	}
}
