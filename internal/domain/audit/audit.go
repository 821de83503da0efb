// Package audit defines the operator-facing audit log entry.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/RescueDesk/internal/domain"
)

// Type classifies an audit entry.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeAction  Type = "action"
)

// ParseType normalizes s into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError, TypeAction:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown log type %q", domain.ErrValidation, s)
}

// Entry is one audit log record. IDs are assigned by the store.
type Entry struct {
	ID        int64          `json:"id"`
	Type      Type           `json:"type"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Context   map[string]any `json:"context,omitempty"`
}

// Filter selects entries for listing. Zero values mean "no constraint";
// Limit keeps the most recent entries.
type Filter struct {
	Limit int
	Types []Type
	Since time.Time
}

// Match reports whether e passes the type and since constraints.
func (f Filter) Match(e *Entry) bool {
	if !f.Since.IsZero() && !e.Timestamp.After(f.Since) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if e.Type == t {
			return true
		}
	}
	return false
}
