package repository

import (
	"context"

	"github.com/fastygo/rentledger/domain"
)

// EventPublisher delivers domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
