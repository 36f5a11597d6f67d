package broker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateBackoff:
		return "backoff"
	default:
		return "unknown"
	}
}

// Handler runs one session on a freshly connected channel. It blocks until
// the session is over; returning hands control back to the supervisor.
type Handler func(ctx context.Context, ch Channel) error

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dial = d
		}
	}
}

// WithChannelSetup registers a step run on every new channel after the
// topology is declared (prefetch, publisher confirms).
func WithChannelSetup(fn func(Channel) error) Option {
	return func(m *Manager) {
		if fn != nil {
			m.setup = append(m.setup, fn)
		}
	}
}

// WithPrefetch caps unacknowledged deliveries per channel.
func WithPrefetch(n int) Option {
	return WithChannelSetup(func(ch Channel) error {
		return ch.Qos(n, 0, false)
	})
}

// WithConfirms puts every channel into publisher confirm mode.
func WithConfirms() Option {
	return WithChannelSetup(func(ch Channel) error {
		return ch.Confirm(false)
	})
}

func WithStateListener(fn func(State)) Option {
	return func(m *Manager) {
		m.listener = fn
	}
}

// Manager owns one broker connection and its channel. Connect establishes
// them, Channel hands out the current channel, Run supervises reconnection
// and Close releases both.
type Manager struct {
	url      string
	dial     Dialer
	topology Topology
	retry    config.RetryConfig
	setup    []func(Channel) error
	listener func(State)

	connectMu sync.Mutex
	mu        sync.RWMutex
	conn      Connection
	ch        Channel
	done      chan struct{}

	stateMu sync.Mutex
	state   atomic.Int32
}

func NewManager(url string, topology Topology, retry config.RetryConfig, opts ...Option) *Manager {
	m := &Manager{
		url:      url,
		dial:     DefaultDialer(10 * time.Second),
		topology: topology,
		retry:    retry.WithDefaults(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// setState serializes transitions so the listener observes them in order.
func (m *Manager) setState(s State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	prev := State(m.state.Swap(int32(s)))
	if prev != s && m.listener != nil {
		m.listener(s)
	}
}

// Connect dials the broker, opens a channel and declares the topology. It is
// a no-op when already connected. A failure is logged and leaves the channel
// unset.
func (m *Manager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.connected() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.setState(StateConnecting)
	logrus.Infof("Connecting to RabbitMQ: %s", redact(m.url))

	conn, err := m.dial(m.url)
	if err != nil {
		return m.failConnect(fmt.Errorf("dial: %w", err))
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return m.failConnect(fmt.Errorf("open channel: %w", err))
	}

	if err := m.topology.Declare(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return m.failConnect(err)
	}

	for _, setup := range m.setup {
		if err := setup(ch); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return m.failConnect(fmt.Errorf("channel setup: %w", err))
		}
	}

	done := make(chan struct{})
	notify := conn.NotifyClose(make(chan *amqp.Error, 1))

	m.mu.Lock()
	m.conn, m.ch, m.done = conn, ch, done
	m.mu.Unlock()

	m.setState(StateConnected)
	go m.watch(conn, notify, done)

	logrus.Infof("RabbitMQ ready: exchange=%s queue=%s routing_key=%s",
		m.topology.Exchange, m.topology.Queue, m.topology.RoutingKey)
	return nil
}

func (m *Manager) failConnect(err error) error {
	m.setState(StateDisconnected)
	logrus.Errorf("Failed to connect to RabbitMQ: %s", err.Error())
	return fmt.Errorf("%w: %v", ErrConnectionFailure, err)
}

// watch logs connection-level errors and forgets the connection once the
// broker closes it.
func (m *Manager) watch(conn Connection, notify chan *amqp.Error, done chan struct{}) {
	defer close(done)

	amqpErr, ok := <-notify
	if ok && amqpErr != nil {
		logrus.Errorf("RabbitMQ connection error: %s", amqpErr.Error())
	}

	m.mu.Lock()
	current := m.conn == conn
	if current {
		m.conn, m.ch = nil, nil
	}
	m.mu.Unlock()

	if current {
		m.setState(StateDisconnected)
	}
}

func (m *Manager) connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ch != nil
}

// Channel returns the live channel or ErrChannelUnavailable.
func (m *Manager) Channel() (Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ch == nil {
		return nil, ErrChannelUnavailable
	}
	return m.ch, nil
}

// Run keeps a session alive until ctx is cancelled. Failed connects and
// failed sessions are retried with exponential backoff; once
// retry.MaxAttempts consecutive failures pile up Run gives up with
// ErrReconnectExhausted. A nil handler simply holds the connection open.
func (m *Manager) Run(ctx context.Context, handler Handler) error {
	failures := 0
	for {
		err := m.session(ctx, handler)
		if ctx.Err() != nil {
			_ = m.Close()
			return ctx.Err()
		}
		if err == nil {
			failures = 0
			continue
		}

		failures++
		if m.retry.MaxAttempts > 0 && failures >= m.retry.MaxAttempts {
			m.setState(StateDisconnected)
			return fmt.Errorf("%w after %d attempts: %v", ErrReconnectExhausted, failures, err)
		}

		delay := m.retry.Backoff(failures - 1)
		m.setState(StateBackoff)
		logrus.Warnf("RabbitMQ session failed (attempt %d): %s. Retrying in %v", failures, err.Error(), delay)

		select {
		case <-ctx.Done():
			_ = m.Close()
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (m *Manager) session(ctx context.Context, handler Handler) error {
	if err := m.Connect(ctx); err != nil {
		return err
	}

	m.mu.RLock()
	ch, done := m.ch, m.done
	m.mu.RUnlock()
	if ch == nil {
		return ErrChannelUnavailable
	}

	if handler == nil {
		select {
		case <-ctx.Done():
		case <-done:
		}
		return nil
	}

	err := handler(ctx, ch)
	if ctx.Err() == nil {
		// force a fresh dial on the next round
		_ = m.Close()
	}
	return err
}

// Close releases the channel and the connection. Safe to call repeatedly.
func (m *Manager) Close() error {
	m.mu.Lock()
	conn, ch := m.conn, m.ch
	m.conn, m.ch = nil, nil
	m.mu.Unlock()

	var errs []error
	if ch != nil {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}

	m.setState(StateDisconnected)
	return errors.Join(errs...)
}

func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	return u.Redacted()
}
