package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/port/auditlog"
)

// AuditLog implements auditlog.Store on the audit_logs table.
type AuditLog struct {
	pool *pgxpool.Pool
	max  int
}

var _ auditlog.Store = (*AuditLog)(nil)

// NewAuditLog returns a store that keeps at most maxEntries rows.
func NewAuditLog(pool *pgxpool.Pool, maxEntries int) *AuditLog {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &AuditLog{pool: pool, max: maxEntries}
}

// Add inserts e and prunes rows beyond the cap in the same transaction.
func (l *AuditLog) Add(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	var ctxJSON []byte
	if len(e.Context) > 0 {
		data, err := json.Marshal(e.Context)
		if err != nil {
			return audit.Entry{}, fmt.Errorf("marshal audit context: %w", err)
		}
		ctxJSON = data
	}

	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO audit_logs (type, message, created_at, context)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			string(e.Type), e.Message, e.Timestamp, ctxJSON,
		).Scan(&e.ID); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM audit_logs WHERE id <= (
			     SELECT id FROM audit_logs ORDER BY id DESC OFFSET $1 LIMIT 1
			 )`, l.max,
		); err != nil {
			return fmt.Errorf("prune audit log: %w", err)
		}
		return nil
	})
	if err != nil {
		return audit.Entry{}, err
	}
	return e, nil
}

// List returns matching entries oldest first, keeping the newest f.Limit.
func (l *AuditLog) List(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	types := make([]string, 0, len(f.Types))
	for _, t := range f.Types {
		types = append(types, string(t))
	}
	var since any
	if !f.Since.IsZero() {
		since = f.Since
	}
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, type, message, created_at, context FROM audit_logs
		 WHERE (cardinality($1::text[]) = 0 OR type = ANY($1))
		   AND ($2::timestamptz IS NULL OR created_at > $2)
		 ORDER BY id DESC
		 LIMIT $3`,
		types, since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			typ     string
			ctxJSON []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.Message, &e.Timestamp, &ctxJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Type = audit.Type(typ)
		if len(ctxJSON) > 0 {
			if err := json.Unmarshal(ctxJSON, &e.Context); err != nil {
				return nil, fmt.Errorf("decode audit context %d: %w", e.ID, err)
			}
		}
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

// Clear removes every entry. The id sequence is not reset.
func (l *AuditLog) Clear(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, `DELETE FROM audit_logs`); err != nil {
		return fmt.Errorf("clear audit log: %w", err)
	}
	return nil
}
