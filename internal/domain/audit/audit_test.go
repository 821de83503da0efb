package audit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain"
	"github.com/Strob0t/RescueDesk/internal/domain/audit"
)

func TestParseType(t *testing.T) {
	got, err := audit.ParseType(" Warning ")
	if err != nil || got != audit.TypeWarning {
		t.Fatalf("ParseType = %q, %v", got, err)
	}
	if _, err := audit.ParseType("fatal"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFilterMatch(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &audit.Entry{Type: audit.TypeError, Timestamp: now}

	tests := []struct {
		name string
		f    audit.Filter
		want bool
	}{
		{"empty filter", audit.Filter{}, true},
		{"type match", audit.Filter{Types: []audit.Type{audit.TypeInfo, audit.TypeError}}, true},
		{"type miss", audit.Filter{Types: []audit.Type{audit.TypeInfo}}, false},
		{"since before", audit.Filter{Since: now.Add(-time.Second)}, true},
		{"since equal is excluded", audit.Filter{Since: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Match(e); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}
