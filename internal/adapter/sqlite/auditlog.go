// Package sqlite provides a single-file audit log store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Strob0t/RescueDesk/internal/domain/audit"
	"github.com/Strob0t/RescueDesk/internal/port/auditlog"
)

const (
	driverName         = "sqlite"
	defaultBusyTimeout = 5 * time.Second
)

var schema = [...]string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA synchronous=NORMAL;`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		context TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_type_id ON audit_logs(type, id);`,
}

// AuditLog implements auditlog.Store on a SQLite file.
type AuditLog struct {
	db  *sql.DB
	max int
}

var _ auditlog.Store = (*AuditLog)(nil)

// Open creates (or reuses) the database at path and applies the schema.
func Open(ctx context.Context, path string, maxEntries int) (*AuditLog, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", filepath.ToSlash(path), int(defaultBusyTimeout/time.Millisecond))
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if maxEntries < 1 {
		maxEntries = 1
	}
	return &AuditLog{db: db, max: maxEntries}, nil
}

// Close releases the database handle.
func (l *AuditLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Add inserts e and prunes rows beyond the cap.
func (l *AuditLog) Add(ctx context.Context, e audit.Entry) (audit.Entry, error) {
	var ctxJSON sql.NullString
	if len(e.Context) > 0 {
		data, err := json.Marshal(e.Context)
		if err != nil {
			return audit.Entry{}, fmt.Errorf("marshal audit context: %w", err)
		}
		ctxJSON = sql.NullString{String: string(data), Valid: true}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO audit_logs (type, message, created_at, context) VALUES (?, ?, ?, ?)`,
		string(e.Type), e.Message, e.Timestamp.UnixNano(), ctxJSON,
	)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return audit.Entry{}, fmt.Errorf("insert audit entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE id <= (
		     SELECT id FROM audit_logs ORDER BY id DESC LIMIT 1 OFFSET ?
		 )`, l.max,
	); err != nil {
		return audit.Entry{}, fmt.Errorf("prune audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return audit.Entry{}, fmt.Errorf("commit: %w", err)
	}
	return e, nil
}

// List returns matching entries oldest first, keeping the newest f.Limit.
func (l *AuditLog) List(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Types) > 0 {
		marks := make([]string, len(f.Types))
		for i, t := range f.Types {
			marks[i] = "?"
			args = append(args, string(t))
		}
		where = append(where, "type IN ("+strings.Join(marks, ", ")+")")
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at > ?")
		args = append(args, f.Since.UnixNano())
	}

	q := "SELECT id, type, message, created_at, context FROM audit_logs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			typ     string
			nanos   int64
			ctxJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &typ, &e.Message, &nanos, &ctxJSON); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Type = audit.Type(typ)
		e.Timestamp = time.Unix(0, nanos).UTC()
		if ctxJSON.Valid {
			if err := json.Unmarshal([]byte(ctxJSON.String), &e.Context); err != nil {
				return nil, fmt.Errorf("decode audit context %d: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}

// Clear removes every entry. AUTOINCREMENT keeps ids increasing.
func (l *AuditLog) Clear(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM audit_logs`); err != nil {
		return fmt.Errorf("clear audit log: %w", err)
	}
	return nil
}
