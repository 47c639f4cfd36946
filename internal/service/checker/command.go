package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/rig-panel/internal/api/grpc/health"
	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/logger"
)

// Options controls the health probe and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EnvPath specifies the dotenv file read before environment overrides.
	EnvPath string
	// Address overrides the configured health listen address.
	Address string
	// Watch keeps polling and logs every status change.
	Watch bool
	// PollInterval defines the interval between checks in watch mode.
	PollInterval time.Duration
}

// DefaultPollInterval defines the polling interval in watch mode.
const DefaultPollInterval = 5 * time.Second

var (
	// ErrNotServing is returned when the panel has no status connection.
	ErrNotServing = errors.New("status connection is down")
	// errNoHealthAddress indicates that the health endpoint is not configured.
	errNoHealthAddress = errors.New("no health address configured")
)

// Run checks the panel's status connection once, or keeps watching it.
// A single check returns ErrNotServing unless the status service is SERVING.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "rig-panel-check")

	// Read .env the same way the panel does, so both agree on the health address.
	if err := config.LoadDotEnv(opts.EnvPath); err != nil {
		return fmt.Errorf("load environment: %w", err)
	}

	// Load configuration to get the health address and timeout.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Command line address overrides the configured listen address.
	address, err := resolveAddress(cfg.Health.ListenAddress, opts.Address)
	if err != nil {
		return err
	}

	// Prepare the health client with timeout from configuration.
	client, err := health.Dial(address, health.WithCallTimeout(cfg.Device.Timeout))
	if err != nil {
		return fmt.Errorf("dial health endpoint: %w", err)
	}

	defer func() {
		_ = client.Close()
	}()

	ctx = logger.WithKV(ctx, "health_address", address)

	// A single check decides the exit status.
	if !opts.Watch {
		return checkOnce(ctx, client)
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	logger.InfoKV(ctx, "Watching status connection", "interval", opts.PollInterval.String())

	// Poll and log only status changes until canceled.
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN

	for {
		status, checkErr := client.Check(ctx)

		switch {
		case checkErr != nil:
			logger.ErrorKV(ctx, "Check failed", "error", checkErr)
		case status != last:
			logger.InfoKV(ctx, "Status connection changed", "status", status.String())
			last = status
		}

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// checkOnce logs the current status and fails unless it is SERVING.
func checkOnce(ctx context.Context, client *health.Client) error {
	status, err := client.Check(ctx)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Status connection", "status", status.String())

	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", ErrNotServing, status)
	}

	return nil
}

// resolveAddress determines where to reach the health endpoint.
// A listen address without host, such as ":9090", is reached on loopback.
func resolveAddress(listenAddress, override string) (string, error) {
	address := listenAddress
	if override != "" {
		address = override
	}

	if address == "" {
		return "", errNoHealthAddress
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", fmt.Errorf("invalid health address %q: %w", address, err)
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port), nil
}
