package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/service/panel"
	"github.com/oshokin/rig-panel/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// envPath to the dotenv file.
	envPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd represents the base command for running the control panel.
	rootCmd = &cobra.Command{
		Use:   "rig-panel [device-url]",
		Short: "Run the indicator rig control panel.",
		Long: `Starts the control panel for the indicator-light rig.

Buttons held longer than the hold delay notify the rig over HTTP when the hold
begins and again when it is released. Shorter presses send nothing.
Light states pushed over the rig's websocket are shown in the log and, when
configured, on GPIO LEDs and a Modbus coil block.

The device URL can be provided as argument to override config
(e.g., http://192.168.4.2); the websocket address is derived from it.
Buttons can be wired to GPIO lines or driven through the local HTTP API.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use device URL argument if provided, otherwise rely on config.
			var deviceURL string
			if len(args) > 0 {
				deviceURL = args[0]
			}

			return panel.Run(ctx, &panel.Options{
				ConfigPath: configPath,
				EnvPath:    envPath,
				DeviceURL:  deviceURL,
				LogLevel:   logLevel,
			})
		},
	}
)

// Execute runs the rig-panel CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&envPath, "env-file", "e", config.DefaultEnvFilename, "path to dotenv file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level override (debug, info, warn, error)")
}
