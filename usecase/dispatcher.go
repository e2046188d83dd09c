package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrHandlerNotFound is returned when no handler is registered under a name.
var ErrHandlerNotFound = errors.New("handler not registered")

type CommandHandler func(ctx context.Context, payload interface{}) (interface{}, error)
type QueryHandler func(ctx context.Context, params interface{}) (interface{}, error)

// Dispatcher routes named commands and queries to the use cases that
// registered them. Transports depend on the dispatcher only.
type Dispatcher struct {
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
	}
}

// RegisterCommand binds a command name. Registering a name twice panics.
func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.cmdHandlers[name]; exists {
		panic(fmt.Sprintf("command %s registered twice", name))
	}
	d.cmdHandlers[name] = handler
}

// RegisterQuery binds a query name. Registering a name twice panics.
func (d *Dispatcher) RegisterQuery(name string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.qryHandlers[name]; exists {
		panic(fmt.Sprintf("query %s registered twice", name))
	}
	d.qryHandlers[name] = handler
}

func (d *Dispatcher) ExecuteCommand(ctx context.Context, name string, payload interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.cmdHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("command %s: %w", name, ErrHandlerNotFound)
	}
	return handler(ctx, payload)
}

func (d *Dispatcher) ExecuteQuery(ctx context.Context, name string, params interface{}) (interface{}, error) {
	d.mu.RLock()
	handler, ok := d.qryHandlers[name]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("query %s: %w", name, ErrHandlerNotFound)
	}
	return handler(ctx, params)
}

// Commands lists registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.cmdHandlers))
	for name := range d.cmdHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
