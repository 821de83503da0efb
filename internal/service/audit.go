package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/port/auditlog"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 1000
)

// AuditService records operator-facing lifecycle messages.
type AuditService struct {
	store auditlog.Store
	now   func() time.Time
}

// NewAuditService creates an AuditService backed by store.
func NewAuditService(store auditlog.Store) *AuditService {
	return &AuditService{store: store, now: time.Now}
}

// Record appends an entry. Storage failures are logged, never returned:
// auditing must not change the outcome of the operation being audited.
func (s *AuditService) Record(ctx context.Context, typ audit.Type, message string, kv map[string]any) {
	if s == nil {
		return
	}
	e := audit.Entry{Type: typ, Message: message, Timestamp: s.now().UTC(), Context: kv}
	if _, err := s.store.Add(ctx, e); err != nil {
		slog.ErrorContext(ctx, "audit record failed", "type", typ, "message", message, "error", err)
	}
}

// List returns entries oldest first. A zero limit means the default of 50;
// limits above 1000 are capped.
func (s *AuditService) List(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultAuditLimit
	case f.Limit > maxAuditLimit:
		f.Limit = maxAuditLimit
	}
	return s.store.List(ctx, f)
}

// Clear removes every entry.
func (s *AuditService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "audit log cleared")
	return nil
}
