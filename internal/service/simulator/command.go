package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/domain/sequencer"
	"github.com/oshokin/rig-panel/internal/logger"
)

// Options controls the rig-simulator process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress overrides the configured listen address.
	ListenAddress string
}

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// errNoListenAddress indicates that no listen address could be derived.
var errNoListenAddress = errors.New("no listen address configured")

// Run starts the simulated rig and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "rig-simulator")

	// Load configuration to get the device address and light timing.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if !logger.SetLevelName(cfg.LogLevel) {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "log_level", cfg.LogLevel)
	}

	// Determine listen address: CLI argument overrides config, which overrides the base URL port.
	override := cfg.Simulator.ListenAddress
	if opts.ListenAddress != "" {
		override = opts.ListenAddress
	}

	listenAddress, err := resolveListenAddress(cfg.Device.BaseURL, override)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	// Build the light sequencer over the configured ring.
	seq, err := sequencer.New(cfg.IndicatorNames(), cfg.Simulator.StepInterval, cfg.Simulator.HoldInterval)
	if err != nil {
		return fmt.Errorf("create sequencer: %w", err)
	}

	var (
		hub = NewHub()
		rig = NewRig(seq, hub)
	)

	gin.SetMode(gin.ReleaseMode)

	// Setup TCP listener for the firmware endpoints.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	// Create the HTTP server with the firmware-compatible routes.
	server := &http.Server{
		Handler:           newRouter(ctx, rig, hub),
		ReadHeaderTimeout: cfg.Device.Timeout,
	}

	logger.InfoKV(
		ctx,
		"Rig simulator listening",
		"listen_address", lis.Addr().String(),
		"log_level", logger.Level().String(),
		"step_interval", cfg.Simulator.StepInterval,
		"indicators", cfg.IndicatorNames(),
	)

	// Step the lights in the background until ctx is canceled.
	go rig.Run(ctx, tickInterval(cfg.Simulator.StepInterval))

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down rig simulator")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)

		close(done)
	}()

	if err := server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "Rig simulator stopped")

	return nil
}

// tickInterval samples the button ten times per step, like the firmware's busy loop.
func tickInterval(step time.Duration) time.Duration {
	return max(step/10, 10*time.Millisecond)
}

// resolveListenAddress determines the listen address for the simulator.
// If override is provided, uses it directly. Otherwise binds every interface
// on the port of the device base URL (80 or 443 when the URL has none).
func resolveListenAddress(baseURL, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if baseURL == "" {
		return "", errNoListenAddress
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid device base URL %q: %w", baseURL, err)
	}

	port := parsed.Port()
	if port == "" {
		port = "80"
		if parsed.Scheme == "https" {
			port = "443"
		}
	}

	return ":" + port, nil
}
