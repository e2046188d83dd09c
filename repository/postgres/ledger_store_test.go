package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/internal/config"
	pgInfra "github.com/fastygo/rentledger/internal/infrastructure/postgres"
	"github.com/fastygo/rentledger/repository/ledger"
	pgRepo "github.com/fastygo/rentledger/repository/postgres"
)

// setupPool migrates the database named by DATABASE_URL and empties the
// ledger tables. Tests are skipped when it is unset.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrations, err := filepath.Abs(filepath.Join("..", "..", "assets", "migrations"))
	require.NoError(t, err)
	cfg := &config.Config{
		Database:   config.DatabaseConfig{URL: url, Name: "rentledger"},
		Migrations: config.MigrationsConfig{Enabled: true, Path: migrations},
	}
	require.NoError(t, pgInfra.RunMigrations(cfg, zap.NewNop()))

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE ledger_entries, agreement_events`)
	require.NoError(t, err)
	return pool
}

func newAgreement(id string) *domain.RentAgreement {
	return domain.NewDraftAgreement(domain.AgreementTerms{
		AgreementID:     id,
		Landlord:        "landlord-1",
		Tenant:          "tenant-1",
		MonthlyRent:     1000,
		SecurityDeposit: 2000,
		StartDate:       100,
		EndDate:         200,
	})
}

func TestLedgerStore_CreateAndGet(t *testing.T) {
	pool := setupPool(t)
	store := ledger.NewAgreementStore(pgRepo.NewLedgerStore(pool), nil, zap.NewNop())
	ctx := context.Background()

	count, err := store.Create(ctx, newAgreement("PG-1"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)

	_, err = store.Create(ctx, newAgreement("PG-1"))
	assert.ErrorIs(t, err, domain.ErrDuplicateAgreement)

	got, err := store.Get(ctx, "PG-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, got.Status)

	_, err = store.Get(ctx, "PG-2")
	assert.ErrorIs(t, err, domain.ErrAgreementNotFound)
}

func TestLedgerStore_ConcurrentSameID(t *testing.T) {
	pool := setupPool(t)
	store := ledger.NewAgreementStore(pgRepo.NewLedgerStore(pool), nil, zap.NewNop())
	ctx := context.Background()

	const workers = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
		failures   []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, newAgreement("RACE"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDuplicateAgreement):
				duplicates++
			default:
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, failures)
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
}

func TestLedgerStore_ConcurrentDistinctIDs(t *testing.T) {
	pool := setupPool(t)
	store := ledger.NewAgreementStore(pgRepo.NewLedgerStore(pool), nil, zap.NewNop())
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, newAgreement(fmt.Sprintf("C-%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(workers), count)
}

func TestEventLog_PublishIsIdempotent(t *testing.T) {
	pool := setupPool(t)
	eventLog := pgRepo.NewEventLog(pool)
	ctx := context.Background()

	event := domain.Event{
		ID:          uuid.NewString(),
		AggregateID: "PG-1",
		Name:        domain.EventAgreementCreated,
		Version:     1,
		Payload:     []byte(`{"agreement_id":"PG-1"}`),
		Metadata:    map[string]string{"source": "ledger"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, eventLog.Publish(ctx, event))
	require.NoError(t, eventLog.Publish(ctx, event))

	var stored int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM agreement_events WHERE id = $1`, event.ID).Scan(&stored))
	assert.Equal(t, 1, stored)

	assert.ErrorIs(t, eventLog.Publish(ctx, domain.Event{}), domain.ErrInvalidPayload)
	require.NoError(t, eventLog.Ping(ctx))
}
