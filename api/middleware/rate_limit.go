package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shulehub/internal/dto"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateDecision reports whether a request may proceed and, when denied,
// how long until the window resets.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter is injected so multi-instance deployments can share state
// through Redis while single instances run in memory.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
}

// RedisFixedWindow counts requests per key in fixed windows via
// INCR + EXPIRE. The counter is shared across instances and survives
// process restarts.
type RedisFixedWindow struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
}

func (l *RedisFixedWindow) Allow(ctx context.Context, key string) (RateDecision, error) {
	fullKey := l.Prefix + ":" + key
	count, err := l.Client.Incr(ctx, fullKey).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, fullKey, l.Window).Err(); err != nil {
			return RateDecision{}, err
		}
	}
	if count > int64(l.Limit) {
		ttl, err := l.Client.TTL(ctx, fullKey).Result()
		if err != nil || ttl <= 0 {
			ttl = l.Window
		}
		return RateDecision{Allowed: false, RetryAfter: ttl}, nil
	}
	return RateDecision{Allowed: true}, nil
}

// MemoryFixedWindow is the single-instance fallback.
type MemoryFixedWindow struct {
	Limit  int
	Window time.Duration

	mutex   sync.Mutex
	windows map[string]*fixedWindow
}

type fixedWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryFixedWindow(limit int, window time.Duration) *MemoryFixedWindow {
	return &MemoryFixedWindow{
		Limit:   limit,
		Window:  window,
		windows: make(map[string]*fixedWindow),
	}
}

func (l *MemoryFixedWindow) Allow(_ context.Context, key string) (RateDecision, error) {
	now := time.Now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	window, ok := l.windows[key]
	if !ok || now.After(window.resetAt) {
		l.windows[key] = &fixedWindow{count: 1, resetAt: now.Add(l.Window)}
		l.cleanupLocked(now)
		return RateDecision{Allowed: true}, nil
	}
	window.count++
	if window.count > l.Limit {
		return RateDecision{Allowed: false, RetryAfter: window.resetAt.Sub(now)}, nil
	}
	return RateDecision{Allowed: true}, nil
}

func (l *MemoryFixedWindow) cleanupLocked(now time.Time) {
	for key, window := range l.windows {
		if now.After(window.resetAt) {
			delete(l.windows, key)
		}
	}
}

// RateLimit applies a limiter keyed by client IP. Limiter backend errors
// fail open: a broken Redis must not take down login.
func RateLimit(limiter RateLimiter, scope string, logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := limiter.Allow(c.Request().Context(), scope+":"+c.RealIP())
			if err != nil {
				if logger != nil {
					logger.WithError(err).Warn("rate limiter unavailable, failing open")
				}
				return next(c)
			}
			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return c.JSON(http.StatusTooManyRequests, dto.Envelope{
					Success: false,
					Message: "Too many requests",
					Data:    map[string]any{"retryAfter": retryAfter},
				})
			}
			return next(c)
		}
	}
}
