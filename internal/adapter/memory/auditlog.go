package memory

import (
	"context"
	"sync"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/port/auditlog"
)

// AuditLog is a bounded in-memory audit log. When full, the oldest entry is dropped.
type AuditLog struct {
	mu      sync.RWMutex
	entries []audit.Entry
	max     int
	nextID  int64
}

var _ auditlog.Store = (*AuditLog)(nil)

// NewAuditLog returns a log that keeps at most maxEntries entries.
func NewAuditLog(maxEntries int) *AuditLog {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &AuditLog{max: maxEntries, nextID: 1}
}

// Add assigns the next id and appends e.
func (l *AuditLog) Add(_ context.Context, e audit.Entry) (audit.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = l.nextID
	l.nextID++
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.max; over > 0 {
		// Copy down so the backing array does not grow without bound.
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return e, nil
}

// List returns matching entries oldest first, keeping the newest f.Limit.
func (l *AuditLog) List(_ context.Context, f audit.Filter) ([]audit.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]audit.Entry, 0, len(l.entries))
	for i := range l.entries {
		if f.Match(&l.entries[i]) {
			out = append(out, l.entries[i])
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Clear removes every entry. Ids keep increasing.
func (l *AuditLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
	return nil
}
