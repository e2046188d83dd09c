package redis

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
)

// EventPublisher broadcasts events over Redis pub/sub. The channel is the
// configured prefix followed by the event name.
type EventPublisher struct {
	client *redislib.Client
	prefix string
}

func NewEventPublisher(client *redislib.Client, prefix string) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel(event.Name), payload).Err()
}

func (p *EventPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *EventPublisher) channel(name string) string {
	return fmt.Sprintf("%s%s", p.prefix, name)
}

var _ repository.EventPublisher = (*EventPublisher)(nil)
