// Package registry journals the objects a client created on each server so
// later sessions can attach to them by handle.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("registry: not found")

type Entry struct {
	ServerName string
	Handle     string
	Kind       string
	Name       string
	SessionID  string
	CreatedAt  time.Time
}

type SessionRecord struct {
	SessionID  string
	ServerName string
	Endpoint   string
	ServerPID  *int64
	StartedAt  time.Time
	ClosedAt   *time.Time
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("chmod registry path: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMigrated opens the registry at path and brings its schema up to date.
func OpenMigrated(ctx context.Context, path string) (*Store, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(ctx, s.db); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// RecordHandle stores e, replacing any earlier entry for the same handle:
// servers reuse handles after a clear.
func (s *Store) RecordHandle(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO handles(server_name, handle, kind, name, session_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(server_name, handle) DO UPDATE SET
	kind=excluded.kind,
	name=excluded.name,
	session_id=excluded.session_id,
	created_at=excluded.created_at
`, e.ServerName, e.Handle, e.Kind, e.Name, e.SessionID, ts(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("record handle: %w", err)
	}
	return nil
}

func (s *Store) RenameHandle(ctx context.Context, serverName, handle, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE handles SET name = ? WHERE server_name = ? AND handle = ?`, name, serverName, handle)
	if err != nil {
		return fmt.Errorf("rename handle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename handle rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetHandle(ctx context.Context, serverName, handle string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT server_name, handle, kind, name, session_id, created_at
FROM handles WHERE server_name = ? AND handle = ?`, serverName, handle)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get handle: %w", err)
	}
	return e, nil
}

// ListHandles returns the entries for serverName in creation order. An
// empty serverName lists every server.
func (s *Store) ListHandles(ctx context.Context, serverName string) ([]Entry, error) {
	query := `SELECT server_name, handle, kind, name, session_id, created_at FROM handles`
	var args []any
	if serverName != "" {
		query += ` WHERE server_name = ?`
		args = append(args, serverName)
	}
	query += ` ORDER BY server_name, created_at, handle`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list handles: %w", err)
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan handle: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handles: %w", err)
	}
	return out, nil
}

func (s *Store) ForgetHandle(ctx context.Context, serverName, handle string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM handles WHERE server_name = ? AND handle = ?`, serverName, handle)
	if err != nil {
		return fmt.Errorf("forget handle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("forget handle rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ForgetServer drops every handle recorded for serverName and reports how
// many were removed.
func (s *Store) ForgetServer(ctx context.Context, serverName string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM handles WHERE server_name = ?`, serverName)
	if err != nil {
		return 0, fmt.Errorf("forget server: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("forget server rows affected: %w", err)
	}
	return affected, nil
}

func (s *Store) StartSession(ctx context.Context, rec SessionRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions(session_id, server_name, endpoint, server_pid, started_at, closed_at)
VALUES (?, ?, ?, ?, ?, NULL)`, rec.SessionID, rec.ServerName, rec.Endpoint, nullableI64(rec.ServerPID), ts(rec.StartedAt))
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

func (s *Store) EndSession(ctx context.Context, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET closed_at = ? WHERE session_id = ? AND closed_at IS NULL`, ts(at), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, serverName string) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, server_name, endpoint, server_pid, started_at, closed_at
FROM sessions WHERE server_name = ? ORDER BY started_at, session_id`, serverName)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	out := []SessionRecord{}
	for rows.Next() {
		var (
			rec     SessionRecord
			pid     sql.NullInt64
			started string
			closed  sql.NullString
		)
		if err := rows.Scan(&rec.SessionID, &rec.ServerName, &rec.Endpoint, &pid, &started, &closed); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if pid.Valid {
			v := pid.Int64
			rec.ServerPID = &v
		}
		if rec.StartedAt, err = parseTS(started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if closed.Valid {
			t, err := parseTS(closed.String)
			if err != nil {
				return nil, fmt.Errorf("parse closed_at: %w", err)
			}
			rec.ClosedAt = &t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (Entry, error) {
	var (
		e       Entry
		created string
	)
	if err := r.Scan(&e.ServerName, &e.Handle, &e.Kind, &e.Name, &e.SessionID, &created); err != nil {
		return Entry{}, err
	}
	t, err := parseTS(created)
	if err != nil {
		return Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	e.CreatedAt = t
	return e, nil
}

func nullableI64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
