package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/RescueDesk/internal/adapter/memory"
	"github.com/Strob0t/RescueDesk/internal/domain/audit"
)

func TestAuditLog_DropsOldest(t *testing.T) {
	l := memory.NewAuditLog(2)
	ctx := context.Background()
	for _, msg := range []string{"one", "two", "three"} {
		if _, err := l.Add(ctx, audit.Entry{Type: audit.TypeInfo, Message: msg, Timestamp: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := l.List(ctx, audit.Filter{})
	if len(got) != 2 || got[0].Message != "two" || got[1].Message != "three" {
		t.Fatalf("got %+v", got)
	}
	if got[1].ID != 3 {
		t.Errorf("id = %d, want 3", got[1].ID)
	}
}

func TestAuditLog_FilterTypesSinceLimit(t *testing.T) {
	l := memory.NewAuditLog(100)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	entries := []audit.Entry{
		{Type: audit.TypeInfo, Message: "a", Timestamp: base},
		{Type: audit.TypeError, Message: "b", Timestamp: base.Add(time.Minute)},
		{Type: audit.TypeAction, Message: "c", Timestamp: base.Add(2 * time.Minute)},
		{Type: audit.TypeError, Message: "d", Timestamp: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		_, _ = l.Add(ctx, e)
	}

	tests := []struct {
		name   string
		filter audit.Filter
		want   []string
	}{
		{"all", audit.Filter{}, []string{"a", "b", "c", "d"}},
		{"errors", audit.Filter{Types: []audit.Type{audit.TypeError}}, []string{"b", "d"}},
		{"since", audit.Filter{Since: base.Add(time.Minute)}, []string{"c", "d"}},
		{"limit", audit.Filter{Limit: 2}, []string{"c", "d"}},
		{"errors limit 1", audit.Filter{Types: []audit.Type{audit.TypeError}, Limit: 1}, []string{"d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Message != tt.want[i] {
					t.Errorf("entry %d = %q, want %q", i, got[i].Message, tt.want[i])
				}
			}
		})
	}
}

func TestAuditLog_Clear(t *testing.T) {
	l := memory.NewAuditLog(10)
	ctx := context.Background()
	_, _ = l.Add(ctx, audit.Entry{Type: audit.TypeInfo, Message: "x"})
	if err := l.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ := l.List(ctx, audit.Filter{})
	if len(got) != 0 {
		t.Fatalf("expected empty log, got %d", len(got))
	}
	e, _ := l.Add(ctx, audit.Entry{Type: audit.TypeInfo, Message: "y"})
	if e.ID != 2 {
		t.Errorf("ids should keep increasing after clear, got %d", e.ID)
	}
}
