package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/rentledger/domain"
	"github.com/fastygo/rentledger/repository"
)

// LogPublisher writes events to the application log.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.logger.Info("event published",
		zap.String("event", event.Name),
		zap.String("event_id", event.ID),
		zap.String("aggregate_id", event.AggregateID),
		zap.ByteString("payload", event.Payload),
	)
	return nil
}

// Sink is a named event destination.
type Sink struct {
	Name      string
	Publisher repository.EventPublisher
}

// FanoutPublisher delivers every event to all sinks and reports the sinks
// that failed.
type FanoutPublisher struct {
	sinks []Sink
}

func NewFanoutPublisher(sinks ...Sink) *FanoutPublisher {
	return &FanoutPublisher{sinks: sinks}
}

func (f *FanoutPublisher) Publish(ctx context.Context, event domain.Event) error {
	var result error
	for _, sink := range f.sinks {
		if sink.Publisher == nil {
			continue
		}
		if err := sink.Publisher.Publish(ctx, event); err != nil {
			result = errors.Join(result, fmt.Errorf("%s: %w", sink.Name, err))
		}
	}
	return result
}

// Names lists the configured sinks in registration order.
func (f *FanoutPublisher) Names() []string {
	names := make([]string, 0, len(f.sinks))
	for _, sink := range f.sinks {
		names = append(names, sink.Name)
	}
	return names
}

var (
	_ repository.EventPublisher = (*LogPublisher)(nil)
	_ repository.EventPublisher = (*FanoutPublisher)(nil)
)
