package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/service/checker"
)

var (
	// watch keeps the check running.
	watch bool

	// checkCmd probes a running panel.
	checkCmd = &cobra.Command{
		Use:   "check [health-address]",
		Short: "Check whether a running panel is connected to the rig.",
		Long: `Queries the panel's gRPC health endpoint for the rig.status service.

Exits with non-zero status unless the status connection is up.
With --watch, polls until interrupted and logs every change.
Health address can be provided as argument to override config (e.g., 127.0.0.1:9090).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var address string
			if len(args) > 0 {
				address = args[0]
			}

			return checker.Run(ctx, &checker.Options{
				ConfigPath: configPath,
				EnvPath:    envPath,
				Address:    address,
				Watch:      watch,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	checkCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	checkCmd.Flags().StringVarP(&envPath, "env-file", "e", config.DefaultEnvFilename, "path to dotenv file")
	checkCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep polling and log status changes")
	rootCmd.AddCommand(checkCmd)
}
