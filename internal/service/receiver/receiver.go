package receiver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/indicator"
	"github.com/oshokin/rig-panel/internal/logger"
)

var (
	// errStatusURLRequired is returned when no websocket address is given.
	errStatusURLRequired = errors.New("status URL must be provided")
	// errSetRequired is returned when no indicator set is given.
	errSetRequired = errors.New("indicator set must be provided")
)

// StateListener is notified when the status connection goes up or down.
type StateListener func(ctx context.Context, connected bool)

// ConnectionStatus describes the status connection for API consumers.
type ConnectionStatus struct {
	// Connected is true while a websocket is open.
	Connected bool `json:"connected"`
	// LastError is the most recent dial or read error.
	LastError string `json:"last_error,omitempty"`
	// Messages counts frames applied since start.
	Messages uint64 `json:"messages"`
	// LastMessage is when the most recent frame arrived.
	LastMessage time.Time `json:"last_message,omitzero"`
}

// Receiver owns the status connection.
type Receiver struct {
	// statusURL is the websocket address.
	statusURL string
	// set receives every message.
	set *indicator.Set
	// sinks display each snapshot.
	sinks []Sink
	// dialer opens the websocket.
	dialer *websocket.Dialer
	// reconnect enables redialing after a disconnect.
	reconnect bool
	// reconnectDelay is the first backoff delay.
	reconnectDelay time.Duration
	// maxReconnectDelay caps the backoff.
	maxReconnectDelay time.Duration
	// listeners observe connection state changes.
	listeners []StateListener

	// mu protects the status fields below.
	mu sync.Mutex
	// connected mirrors the connection state.
	connected bool
	// lastError is the most recent failure.
	lastError error
	// messages counts applied frames.
	messages uint64
	// lastMessage is the arrival time of the latest frame.
	lastMessage time.Time
}

// Option configures receiver behaviour.
type Option func(*Receiver)

// WithSinks adds snapshot sinks.
func WithSinks(sinks ...Sink) Option {
	return func(r *Receiver) {
		for _, sink := range sinks {
			if sink != nil {
				r.sinks = append(r.sinks, sink)
			}
		}
	}
}

// WithReconnect makes the receiver redial with exponential backoff.
func WithReconnect(delay, maxDelay time.Duration) Option {
	return func(r *Receiver) {
		r.reconnect = true

		if delay > 0 {
			r.reconnectDelay = delay
		}

		if maxDelay >= r.reconnectDelay {
			r.maxReconnectDelay = maxDelay
		}
	}
}

// WithHandshakeTimeout bounds the websocket opening handshake.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(r *Receiver) {
		if timeout > 0 {
			r.dialer.HandshakeTimeout = timeout
		}
	}
}

// WithStateListener registers a connection state observer.
func WithStateListener(listener StateListener) Option {
	return func(r *Receiver) {
		if listener != nil {
			r.listeners = append(r.listeners, listener)
		}
	}
}

// New creates a receiver for statusURL applying frames to set.
func New(statusURL string, set *indicator.Set, opts ...Option) (*Receiver, error) {
	if statusURL == "" {
		return nil, errStatusURLRequired
	}

	if _, err := url.ParseRequestURI(statusURL); err != nil {
		return nil, fmt.Errorf("parse status URL: %w", err)
	}

	if set == nil {
		return nil, errSetRequired
	}

	r := &Receiver{
		statusURL: statusURL,
		set:       set,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.DefaultTimeout,
		},
		reconnectDelay:    config.DefaultReconnectDelay,
		maxReconnectDelay: config.DefaultMaxReconnectDelay,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run keeps the status connection until ctx is canceled.
// Without reconnect it returns after the first connection ends,
// or with an error when the first dial fails.
func (r *Receiver) Run(ctx context.Context) error {
	ctx = logger.WithKV(ctx, "status_url", r.statusURL)
	delay := r.reconnectDelay

	for {
		conn, err := r.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			if !r.reconnect {
				return err
			}

			logger.WarnKV(ctx, "Status connection failed, retrying", "error", err, "delay", delay)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}

			delay = min(delay*2, r.maxReconnectDelay)

			continue
		}

		delay = r.reconnectDelay

		r.readLoop(ctx, conn)

		if ctx.Err() != nil {
			return nil
		}

		if !r.reconnect {
			logger.Warn(ctx, "Status connection closed, indicators keep their last state")

			return nil
		}
	}
}

// Status returns a copy of the connection status.
func (r *Receiver) Status() ConnectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := ConnectionStatus{
		Connected:   r.connected,
		Messages:    r.messages,
		LastMessage: r.lastMessage,
	}

	if r.lastError != nil {
		status.LastError = r.lastError.Error()
	}

	return status
}

// Apply runs one status message through the set and the sinks.
func (r *Receiver) Apply(ctx context.Context, message string) indicator.Snapshot {
	snapshot := r.set.Apply(message)

	r.mu.Lock()
	r.messages++
	r.lastMessage = time.Now()
	r.mu.Unlock()

	logger.DebugKV(ctx, "Status message", "message", message, "active", snapshot.Active())

	for _, sink := range r.sinks {
		if err := sink.Show(ctx, snapshot); err != nil {
			logger.WarnKV(ctx, "Indicator sink failed", "sink", sink.Name(), "error", err)
		}
	}

	return snapshot
}

// dial opens the websocket and records the new state.
func (r *Receiver) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, response, err := r.dialer.DialContext(ctx, r.statusURL, nil)
	if response != nil && response.Body != nil {
		_ = response.Body.Close()
	}

	if err != nil {
		err = fmt.Errorf("dial status: %w", err)
		r.setState(ctx, false, err)

		return nil, err
	}

	logger.Info(ctx, "Status connection established")
	r.setState(ctx, true, nil)

	return conn, nil
}

// readLoop applies frames until the connection fails or ctx is canceled.
func (r *Receiver) readLoop(ctx context.Context, conn *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer func() {
		stop()

		_ = conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnKV(ctx, "Status read failed", "error", err)
			}

			r.setState(ctx, false, err)

			return
		}

		// The rig only speaks text; binary frames carry nothing for us.
		if messageType != websocket.TextMessage {
			continue
		}

		r.Apply(ctx, string(data))
	}
}

// setState records the connection state and notifies listeners on change.
func (r *Receiver) setState(ctx context.Context, connected bool, err error) {
	r.mu.Lock()
	changed := r.connected != connected
	r.connected = connected

	if err != nil {
		r.lastError = err
	}
	r.mu.Unlock()

	if !changed && connected {
		return
	}

	for _, listener := range r.listeners {
		listener(ctx, connected)
	}
}
