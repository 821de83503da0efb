package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Strob0t/RescueDesk/internal/config"
)

func TestNew(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc"}
	l, closer := New(cfg)
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsync(t *testing.T) {
	cfg := config.Logging{Level: "debug", Service: "test-svc", Async: true}
	l, closer := New(cfg)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	closer.Close()
}

func TestNew_JSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "info", Service: "rescuedesk", Format: "json"}, &buf, false)
	l.Info("plan approved", "plan_id", "plan_1")
	closer.Close()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "rescuedesk" {
		t.Errorf("service = %v, want rescuedesk", rec["service"])
	}
	if rec["plan_id"] != "plan_1" {
		t.Errorf("plan_id = %v, want plan_1", rec["plan_id"])
	}
}

func TestNew_AsyncFlushesOnClose(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "info", Service: "svc", Async: true}, &buf, false)
	l.Info("one")
	l.Info("two")
	closer.Close()

	if got := strings.Count(buf.String(), "\n"); got != 2 {
		t.Errorf("expected 2 lines after close, got %d: %q", got, buf.String())
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "warn", Service: "svc"}, &buf, false)
	l.Info("hidden")
	l.Warn("shown")
	closer.Close()

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warn record should be written")
	}
}

func TestUseText(t *testing.T) {
	tests := []struct {
		format string
		tty    bool
		want   bool
	}{
		{"json", true, false},
		{"", true, false},
		{"text", false, true},
		{"TEXT", false, true},
		{"auto", true, true},
		{"auto", false, false},
	}
	for _, tt := range tests {
		if got := useText(tt.format, tt.tty); got != tt.want {
			t.Errorf("useText(%q, %v) = %v, want %v", tt.format, tt.tty, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("expected req-123, got %q", got)
	}
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, closer := newWithWriter(config.Logging{Level: "info", Service: "svc"}, &buf, false)
	ctx := WithRequestID(context.Background(), "req-42")
	l.InfoContext(ctx, "handled")
	closer.Close()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["request_id"] != "req-42" {
		t.Errorf("request_id = %v, want req-42", rec["request_id"])
	}
}
