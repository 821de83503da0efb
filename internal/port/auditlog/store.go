// Package auditlog defines the audit log persistence port.
package auditlog

import (
	"context"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
)

// Store persists audit entries in insertion order, keeping at most a
// configured number of the newest entries.
type Store interface {
	// Add assigns the entry id and stores it.
	Add(ctx context.Context, e audit.Entry) (audit.Entry, error)
	// List returns matching entries oldest first, truncated to the newest f.Limit.
	List(ctx context.Context, f audit.Filter) ([]audit.Entry, error)
	Clear(ctx context.Context) error
}
