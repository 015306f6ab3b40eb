package sdk

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ConnectionStatus is the panel's view of service reachability.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

const (
	defaultPollInterval = 30 * time.Second
	reconnectDelay      = 2 * time.Second
)

// ConnectionState is a snapshot of the manager's view. Mutated only by
// the ConnectionManager; callers receive copies. LastError keeps the
// classified failure so the panel can distinguish a dead server from a
// cross-origin rejection.
type ConnectionState struct {
	Status        ConnectionStatus
	BaseURL       string
	LastSuccessAt time.Time
	LastError     *APIError
	Health        *HealthSummary
}

// ConnectionManager maintains reachability state for one panel
// instance. Concurrent probe requests collapse into a single in-flight
// probe; callers share its result.
type ConnectionManager struct {
	client *Client
	group  singleflight.Group

	mu          sync.Mutex
	state       ConnectionState
	subscribers map[int]func(ConnectionState)
	nextSubID   int
	paused      bool

	pollInterval time.Duration
	retryDelay   time.Duration
	wake         chan struct{}
	done         chan struct{}
	closeOnce    sync.Once
}

// ManagerOption mutates a ConnectionManager at construction time.
type ManagerOption func(*ConnectionManager)

// WithPollInterval overrides the background probe cadence.
func WithPollInterval(d time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		m.pollInterval = d
	}
}

// WithRetryDelay overrides the single reconnect follow-up delay.
func WithRetryDelay(d time.Duration) ManagerOption {
	return func(m *ConnectionManager) {
		m.retryDelay = d
	}
}

// NewConnectionManager wraps the client with reachability tracking and
// registers itself as the client's outcome sink.
func NewConnectionManager(client *Client, optFns ...ManagerOption) *ConnectionManager {
	m := &ConnectionManager{
		client:       client,
		subscribers:  map[int]func(ConnectionState){},
		pollInterval: defaultPollInterval,
		retryDelay:   reconnectDelay,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
		state: ConnectionState{
			Status:  StatusDisconnected,
			BaseURL: client.BaseURL(),
		},
	}
	for _, fn := range optFns {
		fn(m)
	}
	client.SetOutcomeSink(m.RecordOutcome)
	return m
}

// State returns a copy of the current connection state.
func (m *ConnectionManager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a callback invoked on every state change with a
// snapshot. Returns an unsubscribe function.
func (m *ConnectionManager) Subscribe(fn func(ConnectionState)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// CheckConnection probes the shallow health endpoint, and on success the
// system health endpoint as well (non-fatal if that one fails). Reports
// whether the service is reachable. Concurrent callers share one probe.
func (m *ConnectionManager) CheckConnection(ctx context.Context) bool {
	result, _, _ := m.group.Do("probe", func() (any, error) {
		return m.probe(ctx), nil
	})
	return result.(bool)
}

// Reconnect transitions to connecting and probes immediately. On
// failure it schedules exactly one follow-up probe; continued retries
// are the polling loop's job.
func (m *ConnectionManager) Reconnect(ctx context.Context) bool {
	m.setStatus(StatusConnecting)
	if m.CheckConnection(ctx) {
		return true
	}

	timer := time.NewTimer(m.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-m.done:
		return false
	case <-timer.C:
	}
	return m.CheckConnection(ctx)
}

// Run drives background polling until the context is cancelled or the
// manager is closed. Intended to run on its own goroutine.
func (m *ConnectionManager) Run(ctx context.Context) {
	m.CheckConnection(ctx)

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-m.wake:
			m.CheckConnection(ctx)
		case <-ticker.C:
			m.mu.Lock()
			paused := m.paused
			m.mu.Unlock()
			if !paused {
				m.CheckConnection(ctx)
			}
		}
	}
}

// Pause suspends background polling. Mirrors the document becoming
// hidden.
func (m *ConnectionManager) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

// Resume re-enables polling and triggers an immediate probe.
func (m *ConnectionManager) Resume() {
	m.mu.Lock()
	wasPaused := m.paused
	m.paused = false
	m.mu.Unlock()

	if wasPaused {
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
}

// Close stops the polling loop.
func (m *ConnectionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}

// RecordOutcome folds a request outcome into reachability without a
// dedicated probe. An unreached request flips connected to error; a
// reached one refreshes the success timestamp.
func (m *ConnectionManager) RecordOutcome(reached bool) {
	m.mu.Lock()
	changed := false
	if reached {
		m.state.LastSuccessAt = time.Now()
		if m.state.Status != StatusConnected {
			m.state.Status = StatusConnected
			m.state.LastError = nil
			changed = true
		}
	} else if m.state.Status == StatusConnected {
		m.state.Status = StatusError
		m.state.LastError = &APIError{Kind: KindNetwork, Message: "request failed to reach server"}
		changed = true
	}
	state := m.state
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(state)
		}
	}
}

func (m *ConnectionManager) probe(ctx context.Context) bool {
	var shallow healthResponse
	if apiErr := m.client.Get(ctx, "/api/health", &shallow, WithoutAuth()); apiErr != nil {
		m.setFailure(apiErr)
		return false
	}

	summary := &HealthSummary{
		APIStatus: shallow.Status,
		Version:   shallow.Version,
	}

	var system systemHealthResponse
	if apiErr := m.client.Get(ctx, "/api/system/health", &system, WithoutAuth()); apiErr == nil {
		summary.APIStatus = system.Status
		summary.Components = system.Components
	}

	m.setSuccess(summary)
	return true
}

func (m *ConnectionManager) setStatus(status ConnectionStatus) {
	m.mu.Lock()
	m.state.Status = status
	m.state.BaseURL = m.client.BaseURL()
	state := m.state
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (m *ConnectionManager) setSuccess(summary *HealthSummary) {
	m.mu.Lock()
	m.state.Status = StatusConnected
	m.state.BaseURL = m.client.BaseURL()
	m.state.LastSuccessAt = time.Now()
	m.state.LastError = nil
	m.state.Health = summary
	state := m.state
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

func (m *ConnectionManager) setFailure(apiErr *APIError) {
	m.mu.Lock()
	m.state.Status = StatusError
	m.state.BaseURL = m.client.BaseURL()
	m.state.LastError = apiErr
	state := m.state
	subs := m.snapshotSubscribers()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// snapshotSubscribers must be called with m.mu held.
func (m *ConnectionManager) snapshotSubscribers() []func(ConnectionState) {
	subs := make([]func(ConnectionState), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
