package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		apiKey string
		header string
		want   int
	}{
		{"auth disabled", "", "", http.StatusOK},
		{"missing header", "k", "", http.StatusUnauthorized},
		{"bearer token", "k", "Bearer k", http.StatusOK},
		{"bare key", "k", "k", http.StatusOK},
		{"wrong key", "k", "Bearer nope", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AuthMiddleware(staticKey(tt.apiKey), ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddlewareKeyRotation(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	key := "old"
	h := AuthMiddleware(func() string { return key }, ok)

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := call("old"); got != http.StatusOK {
		t.Fatalf("old key before rotation: status %d", got)
	}
	key = "new"
	if got := call("old"); got != http.StatusForbidden {
		t.Errorf("old key after rotation: status %d, want 403", got)
	}
	if got := call("new"); got != http.StatusOK {
		t.Errorf("new key after rotation: status %d, want 200", got)
	}
}
