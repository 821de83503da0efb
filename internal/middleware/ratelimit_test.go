package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/rescue/list", http.NoBody)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	handler := rl.Handler(okHandler())

	for i := range 10 {
		if rec := hit(handler, "192.168.1.1:5000"); rec.Code != http.StatusOK {
			t.Errorf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(1, 5)
	handler := rl.Handler(okHandler())

	for range 5 {
		hit(handler, "192.168.1.1:5000")
	}

	rec := hit(handler, "192.168.1.1:5000")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }
	handler := rl.Handler(okHandler())

	if rec := hit(handler, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	if rec := hit(handler, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d", rec.Code)
	}

	clock = clock.Add(1100 * time.Millisecond)
	if rec := hit(handler, "10.0.0.1:1"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: %d", rec.Code)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1:1")
	hit(handler, "10.0.0.1:1")

	if rec := hit(handler, "10.0.0.1:1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("IP 10.0.0.1: expected 429, got %d", rec.Code)
	}
	if rec := hit(handler, "10.0.0.2:1"); rec.Code != http.StatusOK {
		t.Errorf("IP 10.0.0.2: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }
	handler := rl.Handler(okHandler())

	hit(handler, "10.0.0.1:1")
	hit(handler, "10.0.0.2:1")
	if rl.Len() != 2 {
		t.Fatalf("expected 2 clients, got %d", rl.Len())
	}

	clock = clock.Add(10 * time.Minute)
	hit(handler, "10.0.0.2:1")
	rl.cleanup(5 * time.Minute)

	if rl.Len() != 1 {
		t.Errorf("expected 1 client after cleanup, got %d", rl.Len())
	}
}
