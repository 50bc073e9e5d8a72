package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l, err := NewLimiter(rdb, limit, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	return l, mr
}

func TestAllow_BlocksAfterLimitUntilWindowResets(t *testing.T) {
	l, mr := newLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "ip")
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: expected allowed, got %+v %v", i, d, err)
		}
	}
	d, err := l.Allow(ctx, "ip")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.RetryAfter <= 0 {
		t.Fatalf("expected blocked with retry, got %+v", d)
	}

	mr.FastForward(time.Minute + time.Second)
	if d, err := l.Allow(ctx, "ip"); err != nil || !d.Allowed {
		t.Fatalf("expected window reset, got %+v %v", d, err)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l, _ := newLimiter(t, 1)
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "a"); !d.Allowed {
		t.Fatalf("expected a allowed")
	}
	if d, _ := l.Allow(ctx, "b"); !d.Allowed {
		t.Fatalf("expected b allowed")
	}
	if d, _ := l.Allow(ctx, "a"); d.Allowed {
		t.Fatalf("expected a blocked")
	}
}

func TestNewLimiter_Validates(t *testing.T) {
	if _, err := NewLimiter(nil, 1, time.Minute); err == nil {
		t.Fatalf("expected nil client error")
	}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()
	if _, err := NewLimiter(rdb, 0, time.Minute); err == nil {
		t.Fatalf("expected limit error")
	}
}

func TestMiddleware_Returns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newLimiter(t, 1)

	r := gin.New()
	r.GET("/x", Middleware(l, "token"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, mr := newLimiter(t, 1)
	mr.Close()

	r := gin.New()
	r.GET("/x", Middleware(l, "token"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected fail-open 200, got %d", w.Code)
	}
}

func TestMiddleware_NilLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", Middleware(nil, "token"), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
