package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func runRateLimited(t *testing.T, limiter RateLimiter) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RateLimit(limiter, "auth", discardLogger())(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func TestRedisFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := &RedisFixedWindow{Client: client, Limit: 2, Window: time.Minute, Prefix: "rl:test"}

	for i := 0; i < 2; i++ {
		rec := runRateLimited(t, limiter)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := runRateLimited(t, limiter)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// The window resets once the key expires.
	mr.FastForward(2 * time.Minute)
	rec = runRateLimited(t, limiter)
	if rec.Code != http.StatusOK {
		t.Fatalf("status after window reset = %d, want 200", rec.Code)
	}
}

func TestRedisFixedWindowReportsRetryAfter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := &RedisFixedWindow{Client: client, Limit: 1, Window: time.Minute, Prefix: "rl:test"}

	ctx := context.Background()
	if _, err := limiter.Allow(ctx, "k"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	decision, err := limiter.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("second request allowed over limit 1")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > time.Minute {
		t.Errorf("RetryAfter = %v, want within (0, 1m]", decision.RetryAfter)
	}
}

func TestMemoryFixedWindow(t *testing.T) {
	limiter := NewMemoryFixedWindow(2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "k")
		if err != nil || !decision.Allowed {
			t.Fatalf("request %d: allowed=%v err=%v", i+1, decision.Allowed, err)
		}
	}
	decision, err := limiter.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if decision.Allowed {
		t.Fatal("third request allowed over limit 2")
	}
	if decision.RetryAfter <= 0 {
		t.Errorf("RetryAfter = %v, want positive", decision.RetryAfter)
	}

	// Separate keys do not share a window.
	other, err := limiter.Allow(ctx, "other")
	if err != nil || !other.Allowed {
		t.Fatalf("other key: allowed=%v err=%v", other.Allowed, err)
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (RateDecision, error) {
	return RateDecision{}, errors.New("backend down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	rec := runRateLimited(t, brokenLimiter{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when the limiter backend errors", rec.Code)
	}
}
