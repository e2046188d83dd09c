package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/fastygo/rentledger/repository"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// LedgerStore keeps ledger entries in a SQLite table. The pool is limited to
// one connection so transactions never interleave.
type LedgerStore struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path. ":memory:" is accepted.
func Open(path string) (*LedgerStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection and ensures the schema exists.
func New(db *sql.DB) (*LedgerStore, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &LedgerStore{db: db}, nil
}

func (s *LedgerStore) View(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	return s.run(ctx, fn)
}

func (s *LedgerStore) Update(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	return s.run(ctx, fn)
}

func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *LedgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *LedgerStore) run(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&ledgerTx{ctx: ctx, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type ledgerTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *ledgerTx) Get(key string) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRowContext(t.ctx, "SELECT value FROM ledger_entries WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (t *ledgerTx) Has(key string) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(t.ctx, "SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE key = ?)", key).Scan(&exists)
	return exists, err
}

func (t *ledgerTx) Set(key string, value []byte) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO ledger_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	return err
}

var _ repository.LedgerStore = (*LedgerStore)(nil)
