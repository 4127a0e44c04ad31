// Package connectivity tracks whether the remote endpoint is reachable and
// notifies subscribers when that changes.
package connectivity

import (
	"log/slog"
	"sync"
)

// State is the last known reachability of the remote endpoint.
type State string

// Possible states
const (
	StateUnknown State = "unknown"
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// Monitor holds the current State and fans out transitions to subscribers.
type Monitor struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	logger *slog.Logger
}

// NewMonitor creates a Monitor in StateUnknown.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		state:  StateUnknown,
		subs:   make(map[int]func(State)),
		logger: logger.With(slog.String("component", "connectivity")),
	}
}

// Current returns the current state.
func (m *Monitor) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Set records a new state. Subscribers are called synchronously, outside the
// lock, only when the state actually changes.
func (m *Monitor) Set(s State) {
	m.mu.Lock()
	if s == m.state {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = s
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed",
		slog.String("from", string(prev)),
		slog.String("to", string(s)))

	for _, fn := range subs {
		fn(s)
	}
}

// Subscribe registers fn for state transitions and returns a function that
// removes it.
func (m *Monitor) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}
