package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type sqlQueries struct {
	schema      string
	selectView  string
	selectWrite string
	upsert      string
	delete      string
}

var dialectQueries = map[Dialect]sqlQueries{
	DialectPostgres: {
		schema: `
			CREATE TABLE IF NOT EXISTS kv_store (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
		selectView:  `SELECT value FROM kv_store WHERE key = $1`,
		selectWrite: `SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`,
		upsert: `
			INSERT INTO kv_store (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		delete: `DELETE FROM kv_store WHERE key = $1`,
	},
	DialectSQLite: {
		schema: `
			CREATE TABLE IF NOT EXISTS kv_store (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		selectView:  `SELECT value FROM kv_store WHERE key = ?`,
		selectWrite: `SELECT value FROM kv_store WHERE key = ?`,
		upsert: `
			INSERT INTO kv_store (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		delete: `DELETE FROM kv_store WHERE key = ?`,
	},
}

// SQLStore keeps blobs in a single kv_store table of Postgres or SQLite.
type SQLStore struct {
	db      *sql.DB
	queries sqlQueries
	dialect Dialect
	mu      sync.Mutex // one writer per process; Postgres rows are also locked FOR UPDATE
}

func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	q, ok := dialectQueries[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQLStore{db: db, queries: q, dialect: dialect}, nil
}

// Migrate creates the kv_store table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.queries.schema); err != nil {
		return fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return nil
}

func (s *SQLStore) View(ctx context.Context, fn func(tx Tx) error) error {
	opts := &sql.TxOptions{ReadOnly: s.dialect == DialectPostgres}
	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck

	return fn(&sqlStoreTx{tx: sqlTx, queries: s.queries, readOnly: true})
}

func (s *SQLStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&sqlStoreTx{tx: sqlTx, queries: s.queries}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type sqlStoreTx struct {
	tx       *sql.Tx
	queries  sqlQueries
	readOnly bool
}

func (t *sqlStoreTx) Get(ctx context.Context, key string) ([]byte, error) {
	query := t.queries.selectWrite
	if t.readOnly {
		query = t.queries.selectView
	}
	var value string
	err := t.tx.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return []byte(value), nil
}

func (t *sqlStoreTx) Set(ctx context.Context, key string, value []byte) error {
	if t.readOnly {
		return ErrReadOnlyTx
	}
	if _, err := t.tx.ExecContext(ctx, t.queries.upsert, key, string(value)); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (t *sqlStoreTx) Delete(ctx context.Context, key string) error {
	if t.readOnly {
		return ErrReadOnlyTx
	}
	if _, err := t.tx.ExecContext(ctx, t.queries.delete, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}
