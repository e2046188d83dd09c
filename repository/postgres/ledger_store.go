package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/rentledger/repository"
)

const (
	defaultMaxAttempts = 5
	// ledgerLockKey names the transaction-scoped advisory lock held by writers.
	ledgerLockKey int64 = 0x6c6564676572
)

// LedgerStore keeps ledger entries in the ledger_entries table. Updates hold a
// ledger-wide advisory lock, so writers run one at a time and every statement
// after the lock sees what earlier writers committed. Serialization failures
// and unique violations from writers outside the lock are retried.
type LedgerStore struct {
	pool        *pgxpool.Pool
	maxAttempts int
}

// NewLedgerStore returns a Postgres-backed LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool, maxAttempts: defaultMaxAttempts}
}

func (s *LedgerStore) View(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, false, fn)
}

func (s *LedgerStore) Update(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	var err error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err = s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, true, fn)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (s *LedgerStore) Close() error {
	return nil
}

func (s *LedgerStore) run(ctx context.Context, opts pgx.TxOptions, forUpdate bool, fn func(tx repository.LedgerTx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if forUpdate {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
			return err
		}
	}
	if err := fn(&ledgerTx{ctx: ctx, tx: tx, forUpdate: forUpdate}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type ledgerTx struct {
	ctx       context.Context
	tx        pgx.Tx
	forUpdate bool
}

func (t *ledgerTx) Get(key string) ([]byte, error) {
	query := `SELECT value FROM ledger_entries WHERE key = $1`
	if t.forUpdate {
		query += ` FOR UPDATE`
	}
	var value []byte
	if err := t.tx.QueryRow(t.ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (t *ledgerTx) Has(key string) (bool, error) {
	_, err := t.Get(key)
	if errors.Is(err, repository.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (t *ledgerTx) Set(key string, value []byte) error {
	const query = `
	INSERT INTO ledger_entries (key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = NOW()
	`
	_, err := t.tx.Exec(t.ctx, query, key, value)
	return err
}

var _ repository.LedgerStore = (*LedgerStore)(nil)
