package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
)

// EventLog appends published events to the agreement_events table.
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog creates a Postgres-backed event sink.
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Publish stores the event. Re-delivery of an already stored event id is a no-op.
func (l *EventLog) Publish(ctx context.Context, event domain.Event) error {
	const query = `
	INSERT INTO agreement_events (id, agreement_id, name, version, payload, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	ON CONFLICT (id) DO NOTHING
	`

	if event.ID == "" {
		return domain.ErrInvalidPayload
	}

	_, err := l.pool.Exec(ctx, query,
		event.ID,
		event.AggregateID,
		event.Name,
		event.Version,
		[]byte(event.Payload),
		marshalMap(event.Metadata),
		nullTime(event.CreatedAt),
	)
	return err
}

func (l *EventLog) Ping(ctx context.Context) error {
	return l.pool.Ping(ctx)
}

var _ repository.EventPublisher = (*EventLog)(nil)
