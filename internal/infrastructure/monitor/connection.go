package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Sizer reports the number of events waiting in the outbox.
type Sizer interface {
	Size() (int, error)
}

// Targets lists the dependencies probed on every refresh.
type Targets struct {
	Backend string
	Ledger  Pinger
	Sinks   map[string]Pinger
	Outbox  Sizer
}

type Monitor struct {
	targets Targets

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(targets Targets, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		targets:  targets,
		interval: interval,
		timeout:  3 * time.Second,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether the event sinks were reachable on the last check.
// The outbox relay only attempts delivery while this holds.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status.LastCheck.IsZero() {
		return true
	}
	return m.status.SinksOnline()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every target once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	outboxOK, outboxSize := m.checkOutbox()
	status := Status{
		Backend:    m.targets.Backend,
		Ledger:     m.ping(ctx, "ledger", m.targets.Ledger),
		EventSinks: make(map[string]bool, len(m.targets.Sinks)),
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}
	for name, sink := range m.targets.Sinks {
		status.EventSinks[name] = m.ping(ctx, name, sink)
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return status
}

func (m *Monitor) ping(ctx context.Context, name string, target Pinger) bool {
	if target == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := target.Ping(ctx); err != nil {
		m.logger.Warn("dependency ping failed", zap.String("target", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.targets.Outbox == nil {
		return false, 0
	}
	size, err := m.targets.Outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
