package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
	"github.com/fastygo/rentledger/repository/ledger"
	"github.com/fastygo/rentledger/repository/sqlite"
)

// setupTestStore creates an in-memory ledger with the schema applied.
func setupTestStore(t *testing.T) *sqlite.LedgerStore {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestLedgerStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx repository.LedgerTx) error {
		if err := tx.Set("agreement:A1", []byte("first")); err != nil {
			return err
		}
		return tx.Set("agreement:A1", []byte("second"))
	}))

	require.NoError(t, store.View(ctx, func(tx repository.LedgerTx) error {
		value, err := tx.Get("agreement:A1")
		require.NoError(t, err)
		assert.Equal(t, "second", string(value))

		ok, err := tx.Has("agreement:A1")
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = tx.Get("agreement:A2")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
		return nil
	}))
}

func TestLedgerStore_Rollback(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx repository.LedgerTx) error {
		require.NoError(t, tx.Set("k", []byte("v")))
		return errors.New("abort")
	})
	require.Error(t, err)

	require.NoError(t, store.View(ctx, func(tx repository.LedgerTx) error {
		ok, err := tx.Has("k")
		assert.False(t, ok)
		return err
	}))
}

func TestAgreementStore_OnSQLite(t *testing.T) {
	store := ledger.NewAgreementStore(setupTestStore(t), nil, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, domain.NewDraftAgreement(domain.AgreementTerms{
				AgreementID: fmt.Sprintf("S-%d", i%5),
				Landlord:    "l",
				Tenant:      "t",
				MonthlyRent: 10,
				StartDate:   1,
				EndDate:     2,
			}))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var created, duplicates int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrDuplicateAgreement):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, created)
	assert.Equal(t, 5, duplicates)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), count)
}
