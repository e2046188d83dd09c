package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by LedgerTx.Get for absent keys.
var ErrKeyNotFound = errors.New("ledger key not found")

const (
	agreementKeyPrefix = "agreement:"
	// AgreementCountKey holds the number of agreements created so far.
	AgreementCountKey = "agreement_count"
)

// AgreementKey derives the storage key of an agreement record.
func AgreementKey(agreementID string) string {
	return agreementKeyPrefix + agreementID
}

// LedgerTx exposes the primitives available inside a ledger transaction.
type LedgerTx interface {
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	Set(key string, value []byte) error
}

// LedgerStore is a transactional key-value store. Update applies either all
// writes performed by fn or none of them.
type LedgerStore interface {
	View(ctx context.Context, fn func(tx LedgerTx) error) error
	Update(ctx context.Context, fn func(tx LedgerTx) error) error
	Ping(ctx context.Context) error
	Close() error
}
