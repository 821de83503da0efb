package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/RescueDesk/internal/adapter/ws"
)

func TestOriginPatterns(t *testing.T) {
	tests := []struct {
		origin string
		want   []string
	}{
		{"http://localhost:3000", []string{"localhost:3000"}},
		{"https://desk.example.com", []string{"desk.example.com"}},
		{"*", []string{"*"}},
		{"", []string{"*"}},
		{"not a url", nil},
	}
	for _, tt := range tests {
		got := originPatterns(tt.origin)
		if len(got) != len(tt.want) {
			t.Errorf("originPatterns(%q) = %v, want %v", tt.origin, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("originPatterns(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		}
	}
}

func TestHealthHandlerWithoutQueue(t *testing.T) {
	hub := ws.NewHub(nil)
	rec := httptest.NewRecorder()
	healthHandler(hub, nil)(rec, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got healthStatus
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "ok" || got.Version != version || got.NATS != "" {
		t.Errorf("unexpected health: %+v", got)
	}
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	cmd := newMigrateCmd()
	cmd.SetArgs([]string{"down", "zero"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for non-numeric steps")
	}
}
