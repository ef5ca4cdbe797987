// Package history keeps the list of executed queries in a SQLite file.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	_ "modernc.org/sqlite"
)

// DefaultMaxEntries is used when Open is given a non-positive limit.
const DefaultMaxEntries = 500

const schemaSQL = `CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query       TEXT    NOT NULL,
	object_type TEXT    NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL
)`

// Entry is one executed query.
type Entry struct {
	ID         int64     `json:"id" yaml:"id" toml:"id"`
	Query      string    `json:"query" yaml:"query" toml:"query"`
	ObjectType string    `json:"object_type,omitempty" yaml:"object_type,omitempty" toml:"object_type,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at" toml:"created_at"`
}

// Age renders CreatedAt relative to now, e.g. "3 minutes ago".
func (e Entry) Age(now time.Time) string {
	return humanize.RelTime(e.CreatedAt, now, "ago", "from now")
}

// Store is a SQLite-backed query history.
type Store struct {
	db         *sql.DB
	path       string
	maxEntries int
	logger     logr.Logger
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(lgr logr.Logger) Option {
	return func(s *Store) {
		s.logger = lgr
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) the history database at path and keeps at
// most maxEntries queries.
func Open(ctx context.Context, path string, maxEntries int, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history: %w", err)
	}
	s := &Store{db: db, path: path, maxEntries: maxEntries, logger: logr.Discard(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Add records q. An identical earlier entry is moved to the top instead of
// being duplicated. Entries beyond the limit are pruned oldest first.
func (s *Store) Add(ctx context.Context, q, objectType string) error {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE query = ? AND object_type = ?`, q, objectType); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO history (query, object_type, created_at) VALUES (?, ?, ?)`,
		q, objectType, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE id NOT IN (SELECT id FROM history ORDER BY id DESC LIMIT ?)`, s.maxEntries)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.V(1).Info("pruned history", "removed", n, "max_entries", s.maxEntries)
	}
	return nil
}

// List returns entries newest first. A non-positive limit returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, object_type, created_at FROM history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Query, &e.ObjectType, &ms); err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry and reports how many there were.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}
