package security

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

// RateLimiter counts attempts per key in fixed windows. Counters live in
// redis when a client is given and in process memory otherwise.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration

	mu      sync.Mutex
	local   map[string]*localWindow
	sweptAt time.Time
	now     func() time.Time
}

type localWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		local:  make(map[string]*localWindow),
		now:    time.Now,
	}
}

// Allow records one attempt for key and reports whether it is within the limit.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := r.hit(ctx, "ratelimit:"+key)
	if err != nil {
		return true, err
	}
	return count <= int64(r.limit), nil
}

func (r *RateLimiter) hit(ctx context.Context, key string) (int64, error) {
	if r.redis == nil {
		return r.hitLocal(key), nil
	}

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit incr %s: %w", key, err)
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, r.window).Err(); err != nil {
			return count, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
	}
	return count, nil
}

func (r *RateLimiter) hitLocal(key string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	// expired windows are dropped at most once per window
	if now.Sub(r.sweptAt) >= r.window {
		for k, w := range r.local {
			if !now.Before(w.resetAt) {
				delete(r.local, k)
			}
		}
		r.sweptAt = now
	}

	w, ok := r.local[key]
	if !ok || !now.Before(w.resetAt) {
		w = &localWindow{resetAt: now.Add(r.window)}
		r.local[key] = w
	}
	w.count++
	return int64(w.count)
}

// Anti-bot protection: rejects crawler user agents and more than limit
// requests per window from one IP.
func (r *RateLimiter) AntiBotMiddleware(limit int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userAgent := c.Request().Header.Get("User-Agent")
			if isSuspiciousUserAgent(userAgent) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Access denied",
				})
			}

			count, err := r.hit(c.Request().Context(), "antibot:"+c.RealIP())
			if err == nil && count > int64(limit) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "Too many requests",
				})
			}

			return next(c)
		}
	}
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
