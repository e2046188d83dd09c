package services

import (
	"context"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
)

// OutboxPublisher adapts the relay to the repository event port so the
// agreement store can hand events over after commit.
type OutboxPublisher struct {
	relay *OutboxRelay
}

func NewOutboxPublisher(relay *OutboxRelay) *OutboxPublisher {
	return &OutboxPublisher{relay: relay}
}

func (p *OutboxPublisher) Publish(ctx context.Context, event domain.Event) error {
	return p.relay.Deliver(ctx, event)
}

var _ repository.EventPublisher = (*OutboxPublisher)(nil)
