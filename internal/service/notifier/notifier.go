package notifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/hold"
	"github.com/oshokin/rig-panel/internal/logger"
	"github.com/oshokin/rig-panel/internal/version"
)

// DefaultQueueSize bounds the number of undelivered notifications.
const DefaultQueueSize = 16

var (
	// errBaseURLRequired is returned when no device address is configured.
	errBaseURLRequired = errors.New("device base URL must be provided")
	// errUnexpectedStatus wraps non-2xx device responses.
	errUnexpectedStatus = errors.New("unexpected response status")
)

// Notifier delivers queued GET requests to a fixed base address.
type Notifier struct {
	// baseURL is the device address every path is joined to.
	baseURL *url.URL
	// httpClient performs the requests.
	httpClient *http.Client
	// callTimeout bounds a single request.
	callTimeout time.Duration
	// drainTimeout bounds delivery of queued paths after Run is canceled.
	drainTimeout time.Duration
	// queue holds paths waiting for delivery.
	queue chan string
}

// Option configures notifier behaviour.
type Option func(*Notifier)

// WithCallTimeout sets the timeout of a single request.
func WithCallTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// WithDrainTimeout bounds how long Run keeps delivering queued notifications
// after its context is canceled.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(n *Notifier) {
		if timeout > 0 {
			n.drainTimeout = timeout
		}
	}
}

// WithQueueSize sets how many notifications may wait for delivery.
func WithQueueSize(size int) Option {
	return func(n *Notifier) {
		if size > 0 {
			n.queue = make(chan string, size)
		}
	}
}

// New creates a notifier for the device at baseURL.
// Requests are only sent while Run is active.
func New(baseURL string, opts ...Option) (*Notifier, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse device base URL: %w", err)
	}

	n := &Notifier{
		baseURL:     parsed,
		httpClient:  http.DefaultClient,
		callTimeout:  config.DefaultTimeout,
		drainTimeout: config.DefaultTimeout,
		queue:        make(chan string, DefaultQueueSize),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// Notify queues a request to path and returns immediately.
// It reports false when the queue is full and the notification was dropped.
func (n *Notifier) Notify(ctx context.Context, path string) bool {
	select {
	case n.queue <- path:
		return true
	default:
		logger.WarnKV(ctx, "Notification queue full, dropping", "path", path)

		return false
	}
}

// Action adapts Notify to a hold action for the given path.
// A dropped notification is reported as not accepted.
func (n *Notifier) Action(path string) hold.Action {
	return func(ctx context.Context) bool {
		return n.Notify(ctx, path)
	}
}

// Run delivers queued notifications until ctx is canceled,
// then delivers what is still queued within the drain timeout.
func (n *Notifier) Run(ctx context.Context) {
	ctx = logger.WithKV(ctx, "device", n.baseURL.String())

	for {
		select {
		case <-ctx.Done():
			n.drain(ctx)
			return
		case path := <-n.queue:
			// A request in flight finishes within the call timeout even on shutdown.
			n.deliver(context.WithoutCancel(ctx), path)
		}
	}
}

// drain empties the queue after cancellation.
func (n *Notifier) drain(ctx context.Context) {
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.drainTimeout)
	defer cancel()

	for {
		select {
		case path := <-n.queue:
			if drainCtx.Err() != nil {
				logger.WarnKV(ctx, "Drain timeout, dropping notification", "path", path)
				continue
			}

			n.deliver(drainCtx, path)
		default:
			return
		}
	}
}

// deliver sends one notification and logs the outcome.
func (n *Notifier) deliver(ctx context.Context, path string) {
	if err := n.send(ctx, path); err != nil {
		logger.DebugKV(ctx, "Notification failed", "path", path, "error", err)
		return
	}

	logger.DebugKV(ctx, "Notification delivered", "path", path)
}

// send performs one GET request and discards the response body.
func (n *Notifier) send(ctx context.Context, path string) error {
	callCtx, cancel := n.callContext(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(callCtx, http.MethodGet, n.baseURL.JoinPath(path).String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	request.Header.Set("User-Agent", version.UserAgent("rig-panel"))

	response, err := n.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s", errUnexpectedStatus, response.Status)
	}

	return nil
}

// callContext returns a context with the call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (n *Notifier) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, n.callTimeout)
}
