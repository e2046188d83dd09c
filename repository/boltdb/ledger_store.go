package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/rentledger/repository"
)

const defaultBucket = "ledger"

// LedgerStore keeps ledger entries in a single BoltDB bucket. Bolt allows one
// writer at a time, which makes every Update serializable.
type LedgerStore struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the ledger bucket exists.
func Open(path string, bucket string) (*LedgerStore, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &LedgerStore{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

func (s *LedgerStore) View(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(ledgerTx{bucket: tx.Bucket(s.bucket)})
	})
}

func (s *LedgerStore) Update(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := fn(ledgerTx{bucket: tx.Bucket(s.bucket)}); err != nil {
			return err
		}
		// the caller may have given up while fn ran; returning an error rolls back
		return ctx.Err()
	})
}

// Ping verifies the ledger bucket is readable.
func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.View(ctx, func(repository.LedgerTx) error { return nil })
}

// Close closes the Bolt database.
func (s *LedgerStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type ledgerTx struct {
	bucket *bolt.Bucket
}

func (t ledgerTx) Get(key string) ([]byte, error) {
	value := t.bucket.Get([]byte(key))
	if value == nil {
		return nil, repository.ErrKeyNotFound
	}
	// bolt values are only valid for the lifetime of the transaction
	return append([]byte(nil), value...), nil
}

func (t ledgerTx) Has(key string) (bool, error) {
	return t.bucket.Get([]byte(key)) != nil, nil
}

func (t ledgerTx) Set(key string, value []byte) error {
	return t.bucket.Put([]byte(key), value)
}

var _ repository.LedgerStore = (*LedgerStore)(nil)
