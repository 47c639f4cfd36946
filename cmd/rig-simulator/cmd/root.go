package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/service/simulator"
	"github.com/oshokin/rig-panel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the simulated rig.
	rootCmd = &cobra.Command{
		Use:   "rig-simulator [listen-address]",
		Short: "Run a simulated indicator rig.",
		Long: `Starts a software stand-in for the indicator-light rig.

The simulator cycles its lights like the rig firmware and pushes every state
to websocket clients on /ws. GET /hold and /release act as the rig button,
/start and /stop as the remote hold.

Only the port of the device base URL is used for listening (e.g., :80).
Listen address can be provided as argument to override config (e.g., :8080).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return simulator.Run(ctx, &simulator.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}
)

// Execute runs the rig-simulator CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
