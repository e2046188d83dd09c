package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/rentledger/repository"
)

const defaultMaxAttempts = 10

// LedgerStore keeps ledger entries as plain Redis strings. Updates use
// WATCH/MULTI/EXEC: every key read inside the transaction is watched and the
// buffered writes are applied atomically, retrying when a watched key changed.
type LedgerStore struct {
	client      *redislib.Client
	prefix      string
	maxAttempts int
}

// NewLedgerStore creates a Redis-backed LedgerStore. Keys are namespaced with prefix.
func NewLedgerStore(client *redislib.Client, prefix string) *LedgerStore {
	if prefix == "" {
		prefix = "ledger:"
	}
	return &LedgerStore{
		client:      client,
		prefix:      prefix,
		maxAttempts: defaultMaxAttempts,
	}
}

func (s *LedgerStore) View(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	return fn(&ledgerTx{ctx: ctx, cmd: s.client, prefix: s.prefix, readOnly: true})
}

func (s *LedgerStore) Update(ctx context.Context, fn func(tx repository.LedgerTx) error) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(rtx *redislib.Tx) error {
			tx := &ledgerTx{ctx: ctx, cmd: rtx, watch: rtx, prefix: s.prefix, writes: map[string][]byte{}}
			if err := fn(tx); err != nil {
				return err
			}
			if len(tx.order) == 0 {
				return nil
			}
			_, err := rtx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
				for _, key := range tx.order {
					pipe.Set(ctx, s.prefix+key, tx.writes[key], 0)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redislib.TxFailedErr) {
			continue
		}
		return err
	}
	return redislib.TxFailedErr
}

func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the client is owned by the caller.
func (s *LedgerStore) Close() error {
	return nil
}

type getter interface {
	Get(ctx context.Context, key string) *redislib.StringCmd
}

type ledgerTx struct {
	ctx      context.Context
	cmd      getter
	watch    *redislib.Tx
	prefix   string
	readOnly bool

	writes map[string][]byte
	order  []string
}

func (t *ledgerTx) Get(key string) ([]byte, error) {
	if value, ok := t.writes[key]; ok {
		return append([]byte(nil), value...), nil
	}
	if t.watch != nil {
		if err := t.watch.Watch(t.ctx, t.prefix+key).Err(); err != nil {
			return nil, err
		}
	}
	value, err := t.cmd.Get(t.ctx, t.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
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
	if t.readOnly {
		return errors.New("ledger: write in read-only transaction")
	}
	if _, ok := t.writes[key]; !ok {
		t.order = append(t.order, key)
	}
	t.writes[key] = append([]byte(nil), value...)
	return nil
}

var _ repository.LedgerStore = (*LedgerStore)(nil)
