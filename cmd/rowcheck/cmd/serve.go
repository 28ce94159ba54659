/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/api"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the rowcheck REST API server.

Endpoints:
  GET  /metrics              Prometheus metrics
  GET  /api/v1/health        Health check
  POST /api/v1/rows/encode   {"sort_key":1,"name":"x","offset":2}
  POST /api/v1/rows/decode   {"hex":"..."}

Decoded sort_key and offset are returned as decimal strings so that 64-bit
values survive clients that read JSON numbers as doubles.

Examples:
  rowcheck serve --port 9200
  rowcheck serve --bind 0.0.0.0`,
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
			cfg.Metrics.Enabled = true
			if cmd.Flags().Changed("bind") {
				cfg.Metrics.Bind, _ = cmd.Flags().GetString("bind")
			}
			if cmd.Flags().Changed("port") {
				cfg.Metrics.Port, _ = cmd.Flags().GetInt("port")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			serverCfg := api.ServerConfig{Bind: cfg.Metrics.Bind, Port: cfg.Metrics.Port}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cmd.Printf("Starting rowcheck API server on %s:%d\n", serverCfg.Bind, serverCfg.Port)
			return container.GetServerFactory().CreateServerStarter().
				StartServer(ctx, serverCfg, prometheus.NewRegistry(), s.logger)
		},
	}

	serveCmd.Flags().IntP("port", "p", 9200, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind")

	return serveCmd
}
