package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/api"
	"github.com/ssargent/rowcheck/pkg/config"
	"github.com/ssargent/rowcheck/pkg/repro"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the round-trip verification harness",
		Long: `Run the round-trip verification harness.

Each attempt opens a fresh row store, encodes and decodes rows named after the
series with offsets 0..rows-1, stores them and reads them back in key order.
The run stops at the first row that does not survive the round trip and exits
with status 2.

Examples:
  rowcheck run --attempts 10000 --workers 8
  rowcheck run --attempts 0 --metrics --metrics-port 9200   # until interrupted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stateFrom(cmd)
			if err != nil {
				return err
			}
			if container == nil {
				return errors.New("dependency container not initialized")
			}

			cfg := *s.config
			applyRunFlags(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			runner, err := container.GetRunnerFactory().CreateRunner(
				repro.FromConfig(&cfg),
				repro.WithLogger(s.logger),
				repro.WithMetrics(repro.NewMetrics(reg)),
			)
			if err != nil {
				return err
			}

			if cfg.Metrics.Enabled {
				serverCtx, cancelServer := context.WithCancel(ctx)
				defer cancelServer()
				starter := container.GetServerFactory().CreateServerStarter()
				serverCfg := api.ServerConfig{Bind: cfg.Metrics.Bind, Port: cfg.Metrics.Port}
				go func() {
					if err := starter.StartServer(serverCtx, serverCfg, reg, s.logger); err != nil {
						s.logger.Error("metrics server failed", zap.Error(err))
					}
				}()
			}

			report, err := runner.Run(ctx)
			cmd.Printf("Run %s: %d attempts, %d rows, %d bytes in %s (%d workers)\n",
				report.RunID, report.Attempts, report.Rows, report.Bytes, report.Duration, report.Workers)

			switch {
			case err == nil:
				return nil
			case repro.IsMismatch(err):
				cmd.Printf("FATAL: %v\n", err)
				return err
			case cfg.Harness.Attempts == 0 && errors.Is(err, context.Canceled):
				// An unbounded run ends by interruption.
				return nil
			default:
				return err
			}
		},
	}

	runCmd.Flags().Int("attempts", 0, "Total attempts across all workers (0 runs until interrupted)")
	runCmd.Flags().Int("workers", 0, "Concurrent workers (0 = one per CPU)")
	runCmd.Flags().Int("rows", 0, "Rows per attempt")
	runCmd.Flags().String("series", "", "Series name used to build rows")
	runCmd.Flags().Bool("on-disk", false, "Use an on-disk store per attempt instead of an in-memory one")
	runCmd.Flags().String("data-dir", "", "Directory for on-disk stores")
	runCmd.Flags().Bool("metrics", false, "Serve Prometheus metrics while running")
	runCmd.Flags().Int("metrics-port", 0, "Port for the metrics server")

	return runCmd
}

// applyRunFlags overrides config values with flags set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("attempts") {
		cfg.Harness.Attempts, _ = flags.GetInt("attempts")
	}
	if flags.Changed("workers") {
		cfg.Harness.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("rows") {
		cfg.Harness.RowsPerAttempt, _ = flags.GetInt("rows")
	}
	if flags.Changed("series") {
		cfg.Harness.Series, _ = flags.GetString("series")
	}
	if flags.Changed("on-disk") {
		onDisk, _ := flags.GetBool("on-disk")
		cfg.Store.InMemory = !onDisk
	}
	if flags.Changed("data-dir") {
		cfg.Store.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled, _ = flags.GetBool("metrics")
	}
	if flags.Changed("metrics-port") {
		cfg.Metrics.Port, _ = flags.GetInt("metrics-port")
	}
}
