package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type fixedSize int

func (s fixedSize) Size() (int, error) { return int(s), nil }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestMonitor_OnlineBeforeFirstCheck(t *testing.T) {
	m := New(Targets{}, 0, nil)
	assert.True(t, m.IsOnline())
}

func TestMonitor_Refresh(t *testing.T) {
	m := New(Targets{
		Backend: "bolt",
		Ledger:  up,
		Sinks:   map[string]Pinger{"redis": up, "postgres": down},
		Outbox:  fixedSize(4),
	}, 0, nil)

	status := m.Refresh(context.Background())

	assert.Equal(t, "bolt", status.Backend)
	assert.True(t, status.Ledger)
	assert.True(t, status.EventSinks["redis"])
	assert.False(t, status.EventSinks["postgres"])
	assert.True(t, status.Outbox)
	assert.Equal(t, 4, status.OutboxSize)
	assert.False(t, m.IsOnline())
	assert.Equal(t, status, m.GetStatus())
}

func TestMonitor_OnlineWhenSinksAnswer(t *testing.T) {
	m := New(Targets{Ledger: down, Sinks: map[string]Pinger{"redis": up}}, 0, nil)
	status := m.Refresh(context.Background())

	assert.False(t, status.Ledger)
	assert.False(t, status.Outbox)
	assert.True(t, m.IsOnline())
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	m := New(Targets{}, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
