package boltdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/rentledger/repository"
)

func openTestStore(t *testing.T) *LedgerStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLedgerStore_SetGetHas(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx repository.LedgerTx) error {
		return tx.Set("agreement:A1", []byte(`{"agreement_id":"A1"}`))
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx repository.LedgerTx) error {
		value, err := tx.Get("agreement:A1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"agreement_id":"A1"}`, string(value))

		ok, err := tx.Has("agreement:A1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.Has("agreement:missing")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = tx.Get("agreement:missing")
		assert.ErrorIs(t, err, repository.ErrKeyNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestLedgerStore_UpdateRollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(tx repository.LedgerTx) error {
		require.NoError(t, tx.Set("k", []byte("v")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = store.View(ctx, func(tx repository.LedgerTx) error {
		ok, err := tx.Has("k")
		assert.False(t, ok)
		return err
	})
	require.NoError(t, err)
}

func TestLedgerStore_CanceledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Update(ctx, func(tx repository.LedgerTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLedgerStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := Open(path, "ledger")
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, func(tx repository.LedgerTx) error {
		return tx.Set("agreement_count", []byte("3"))
	}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, "ledger")
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.View(ctx, func(tx repository.LedgerTx) error {
		value, err := tx.Get("agreement_count")
		assert.Equal(t, "3", string(value))
		return err
	}))
	require.NoError(t, reopened.Ping(ctx))
}
