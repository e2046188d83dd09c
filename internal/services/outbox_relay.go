package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/internal/infrastructure/outbox"
	"github.com/fastygo/rentledger/internal/metrics"
	"github.com/fastygo/rentledger/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxRelay delivers events to the sinks, parking them in the outbox while
// the sinks are unreachable and retrying on a schedule.
type OutboxRelay struct {
	store   *outbox.Store
	monitor ConnectionHealth
	sink    repository.EventPublisher
	metrics *metrics.Metrics
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     RelayConfig
}

func NewOutboxRelay(
	store *outbox.Store,
	monitor ConnectionHealth,
	sink repository.EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg RelayConfig,
) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 72 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OutboxRelay{
		store:   store,
		monitor: monitor,
		sink:    sink,
		metrics: m,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	_, _ = r.cron.AddFunc("@every "+cfg.Interval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = r.cron.AddFunc("@hourly", func() {
		removed, err := r.Cleanup(time.Now().Add(-cfg.Retention))
		if err != nil {
			r.logger.Error("outbox cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			r.logger.Warn("expired outbox events removed", zap.Int("count", removed))
		}
	})

	return r
}

// Start launches the cron scheduler.
func (r *OutboxRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("outbox relay started", zap.Duration("interval", r.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (r *OutboxRelay) Stop(ctx context.Context) {
	if r == nil || r.cron == nil {
		return
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	r.logger.Info("outbox relay stopped")
}

// Deliver publishes the event immediately when the sinks are online and
// falls back to the outbox otherwise. It fails only when the event could be
// neither delivered nor parked.
func (r *OutboxRelay) Deliver(ctx context.Context, event domain.Event) error {
	if r == nil || r.sink == nil {
		return fmt.Errorf("outbox relay not configured")
	}

	var deliverErr error
	if r.monitor == nil || r.monitor.IsOnline() {
		if deliverErr = r.sink.Publish(ctx, event); deliverErr == nil {
			r.metrics.OutboxDelivery(true)
			return nil
		}
		r.logger.Warn("immediate delivery failed, parking event in outbox",
			zap.String("event_id", event.ID),
			zap.Error(deliverErr))
	}

	if r.store == nil {
		if deliverErr == nil {
			deliverErr = errors.New("sinks offline")
		}
		return deliverErr
	}

	item := outbox.Item{Event: event}
	if deliverErr != nil {
		item.LastError = deliverErr.Error()
	}
	if err := r.store.Enqueue(item); err != nil {
		return errors.Join(deliverErr, fmt.Errorf("enqueue outbox: %w", err))
	}
	r.refreshPending()
	return nil
}

// Drain retries parked events synchronously.
func (r *OutboxRelay) Drain(ctx context.Context) error {
	if r == nil || r.store == nil || r.sink == nil {
		return nil
	}
	if r.monitor != nil && !r.monitor.IsOnline() {
		r.logger.Debug("skipping outbox drain (offline)")
		return nil
	}
	defer r.refreshPending()

	items, err := r.store.GetBatch(r.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.sink.Publish(ctx, item.Event); err != nil {
			r.logger.Error("failed to deliver outbox event",
				zap.String("event_id", item.ID()),
				zap.String("event", item.Event.Name),
				zap.Error(err))

			item.Retries++
			item.LastError = err.Error()
			if item.Retries >= r.cfg.MaxRetries {
				r.logger.Warn("dropping outbox event (max retries reached)",
					zap.String("event_id", item.ID()),
					zap.String("aggregate_id", item.Event.AggregateID))
				if err := r.store.Remove(item); err != nil {
					r.logger.Warn("failed to remove outbox event", zap.Error(err))
				}
				r.metrics.OutboxDelivery(false)
				continue
			}

			if err := r.store.Requeue(item); err != nil {
				r.logger.Error("failed to requeue outbox event", zap.Error(err))
			}
			continue
		}

		if err := r.store.Remove(item); err != nil {
			r.logger.Warn("failed to purge delivered outbox event", zap.Error(err))
		}
		r.metrics.OutboxDelivery(true)
	}
	return nil
}

// Cleanup drops parked events older than the cutoff; each one counts as dropped.
func (r *OutboxRelay) Cleanup(olderThan time.Time) (int, error) {
	if r == nil || r.store == nil {
		return 0, nil
	}
	removed, err := r.store.Cleanup(olderThan)
	for i := 0; i < removed; i++ {
		r.metrics.OutboxDelivery(false)
	}
	r.refreshPending()
	return removed, err
}

// Size returns the number of parked events.
func (r *OutboxRelay) Size() int {
	if r == nil || r.store == nil {
		return 0
	}
	size, err := r.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (r *OutboxRelay) refreshPending() {
	r.metrics.SetOutboxPending(r.Size())
}
