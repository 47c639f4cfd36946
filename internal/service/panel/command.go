package panel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	healthapi "github.com/oshokin/rig-panel/internal/api/grpc/health"
	api "github.com/oshokin/rig-panel/internal/api/http/panel"
	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/logger"
	"github.com/oshokin/rig-panel/internal/service/receiver"
	"github.com/oshokin/rig-panel/internal/version"
)

// Options controls the rig-panel process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EnvPath specifies the dotenv file read before environment overrides.
	EnvPath string
	// DeviceURL overrides the device base URL; the status URL follows it.
	DeviceURL string
	// LogLevel overrides the configured log level.
	LogLevel string
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// statusPath is where the rig serves its websocket.
const statusPath = "/ws"

// errUnsupportedScheme is returned for device URLs that are not http or https.
var errUnsupportedScheme = errors.New("device URL scheme must be http or https")

// Run starts the panel and blocks until ctx is canceled or a listener fails.
// On shutdown every held button is released and its end notification delivered.
//
//nolint:funlen // Startup and shutdown order reads better in one place.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "rig-panel")

	// Read .env first so its variables take part in environment overrides.
	if err := config.LoadDotEnv(opts.EnvPath); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	// Load configuration to get device, button and listener settings.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Device URL argument overrides both configured device addresses.
	if opts.DeviceURL != "" {
		if err = overrideDevice(cfg, opts.DeviceURL); err != nil {
			return fmt.Errorf("device URL override: %w", err)
		}
	}

	// Command line log level wins over the configured one.
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	if !logger.SetLevelName(level) {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "log_level", level)
	}

	// Build sessions, indicator set and notifier.
	svc, err := newService(cfg)
	if err != nil {
		return err
	}

	// Shutdown contexts outlive ctx so held buttons can still be released.
	shutdownCtx := context.WithoutCancel(ctx)
	defer svc.board.Close(shutdownCtx)

	// Open optional hardware; failures only disable the device.
	sinks, closeSinks := openSinks(ctx, cfg)
	defer closeSinks()

	closeButtons := sync.OnceFunc(watchButtons(ctx, cfg, svc.board))
	defer closeButtons()

	// Configure the status receiver and its listeners.
	receiverOpts := []receiver.Option{
		receiver.WithSinks(sinks...),
		receiver.WithHandshakeTimeout(cfg.Device.Timeout),
	}

	if cfg.Status.Reconnect {
		receiverOpts = append(receiverOpts, receiver.WithReconnect(cfg.Status.ReconnectDelay, cfg.Status.MaxReconnectDelay))
	}

	var health *healthapi.Server
	if cfg.Health.ListenAddress != "" {
		health = healthapi.NewServer()
		receiverOpts = append(receiverOpts, receiver.WithStateListener(health.SetConnected))
	}

	svc.receiver, err = receiver.New(cfg.Device.StatusURL, svc.set, receiverOpts...)
	if err != nil {
		return fmt.Errorf("create receiver: %w", err)
	}

	// The notifier stops last, after the final end notifications are queued.
	notifyCtx, stopNotifier := context.WithCancel(shutdownCtx)
	defer stopNotifier()

	notifierDone := make(chan struct{})

	go func() {
		svc.notifier.Run(notifyCtx)
		close(notifierDone)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		errCh = make(chan error, 2)
		fail  = func(err error) {
			errCh <- err
			cancel()
		}
	)

	// Keep the status connection; losing it never stops the panel.
	wg.Go(func() {
		if err := svc.receiver.Run(ctx); err != nil {
			logger.WarnKV(ctx, "Status connection unavailable, indicators stay dark", "error", err)
		}
	})

	// Serve the control API when configured.
	if cfg.API.ListenAddress != "" {
		handler := api.NewServer(ctx, svc)

		wg.Go(func() {
			if err := serveAPI(ctx, cfg.API.ListenAddress, handler, cfg.Device.Timeout); err != nil {
				fail(err)
			}
		})
	}

	// Serve health checks when configured.
	if health != nil {
		wg.Go(func() {
			if err := health.Run(ctx, cfg.Health.ListenAddress); err != nil {
				fail(err)
			}
		})
	}

	logger.InfoKV(
		ctx,
		"Rig panel started",
		"version", version.Short(),
		"log_level", logger.Level().String(),
		"base_url", cfg.Device.BaseURL,
		"status_url", cfg.Device.StatusURL,
		"buttons", len(cfg.Buttons),
		"indicators", cfg.IndicatorNames(),
	)

	// Wait for shutdown, then stop inputs before releasing held buttons.
	<-ctx.Done()
	wg.Wait()
	closeButtons()

	// Release held buttons and let the notifier deliver their end paths.
	svc.board.Close(shutdownCtx)
	stopNotifier()
	<-notifierDone

	logger.Info(ctx, "Rig panel stopped")

	select {
	case err = <-errCh:
		return err
	default:
		return nil
	}
}

// serveAPI serves the control API on address until ctx is canceled.
func serveAPI(ctx context.Context, address string, handler http.Handler, readTimeout time.Duration) error {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readTimeout,
	}

	logger.InfoKV(ctx, "Control API listening", "listen_address", lis.Addr().String())

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)

		close(done)
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve control API: %w", err)
	}

	<-done

	return nil
}

// overrideDevice points the panel at another rig.
// The status URL is derived from the base URL: http becomes ws, https becomes wss.
func overrideDevice(cfg *config.Config, deviceURL string) error {
	statusURL, err := statusURLFor(deviceURL)
	if err != nil {
		return err
	}

	cfg.Device.BaseURL = deviceURL
	cfg.Device.StatusURL = statusURL

	return config.Validate(cfg)
}

// statusURLFor returns the websocket address of the rig at baseURL.
func statusURLFor(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", baseURL, err)
	}

	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedScheme, baseURL)
	}

	parsed.Path = statusPath
	parsed.RawQuery = ""
	parsed.Fragment = ""

	return parsed.String(), nil
}
