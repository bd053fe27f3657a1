// Package sqldb implements core.Storage as a key/value table in SQLite or
// Postgres.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/aretw0/introspection"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/aretw0/qafizz/pkg/core"
)

// DefaultTable is the table holding all keys.
const DefaultTable = "qafizz_kv"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds the configuration for the SQL storage.
type Config struct {
	Dialect Dialect
	DSN     string
	Table   string
	Logger  *slog.Logger
}

// Storage implements core.Storage and core.Atomic over one table.
type Storage struct {
	db      *sql.DB
	dialect Dialect
	table   string
	q       queries
	logger  *slog.Logger
	owned   bool
}

// Open connects to the database described by config and creates the table.
func Open(ctx context.Context, config Config) (*Storage, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("%s: empty dsn: %w", config.Dialect.Name, core.ErrUnavailable)
	}

	db, err := sql.Open(config.Dialect.Driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if config.Dialect.SingleConn {
		db.SetMaxOpenConns(1)
	}

	s, err := New(db, config)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.owned = true

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w: %w", core.ErrUnavailable, err)
	}
	if err := s.Initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection pool. The caller keeps ownership of db.
func New(db *sql.DB, config Config) (*Storage, error) {
	table := config.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Storage{
		db:      db,
		dialect: config.Dialect,
		table:   table,
		q:       config.Dialect.queries(table),
		logger:  config.Logger,
	}, nil
}

// Initialize applies dialect pragmas and creates the table if missing.
func (s *Storage) Initialize(ctx context.Context) error {
	for _, p := range s.dialect.Pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, s.q.schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Get reads the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (string, bool, error) {
	return get(ctx, s.db, s.q.get, key)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func get(ctx context.Context, db queryer, query, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts value under key.
func (s *Storage) Set(ctx context.Context, key, value string) error {
	return s.set(ctx, s.db, key, value)
}

func (s *Storage) set(ctx context.Context, db execer, key, value string) error {
	if _, err := db.ExecContext(ctx, s.q.upsert, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Debug("key written", "key", key, "bytes", len(value), "dialect", s.dialect.Name)
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (s *Storage) Remove(ctx context.Context, key string) error {
	return s.remove(ctx, s.db, key)
}

func (s *Storage) remove(ctx context.Context, db execer, key string) error {
	if _, err := db.ExecContext(ctx, s.q.remove, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a transaction. Postgres takes an advisory lock on
// table/key and locks the existing row; SQLite serializes through its single
// connection.
func (s *Storage) Update(ctx context.Context, key string, fn core.UpdateFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.q.lock != "" {
		if _, err = tx.ExecContext(ctx, s.q.lock, s.table+"/"+key); err != nil {
			return fmt.Errorf("failed to lock %s: %w", key, err)
		}
	}

	current, ok, err := get(ctx, tx, s.q.getLocked, key)
	if err != nil {
		return err
	}

	next, keep, err := fn(current, ok)
	if errors.Is(err, core.ErrUnchanged) {
		err = tx.Rollback()
		return err
	}
	if err != nil {
		return err
	}

	switch {
	case keep:
		err = s.set(ctx, tx, key, next)
	case ok:
		err = s.remove(ctx, tx, key)
	}
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the pool when Open created it.
func (s *Storage) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Dialect         string `json:"dialect"`
	Table           string `json:"table"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	stats := s.db.Stats()
	return StorageState{
		Dialect:         s.dialect.Name,
		Table:           s.table,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "sql-storage"
}

var (
	_ core.Storage                 = (*Storage)(nil)
	_ core.Atomic                  = (*Storage)(nil)
	_ core.Closer                  = (*Storage)(nil)
	_ introspection.Introspectable = (*Storage)(nil)
	_ introspection.Component      = (*Storage)(nil)
)
