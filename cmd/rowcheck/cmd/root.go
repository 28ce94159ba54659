/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/config"
	"github.com/ssargent/rowcheck/pkg/di"
	"github.com/ssargent/rowcheck/pkg/logging"
	"github.com/ssargent/rowcheck/pkg/repro"
	"go.uber.org/zap"
)

const (
	exitError    = 1
	exitMismatch = 2
)

var container *di.Container

// SetContainer sets the dependency injection container
func SetContainer(c *di.Container) {
	container = c
}

type stateKey struct{}

// state is resolved once per invocation and shared with subcommands.
type state struct {
	config     *config.Config
	configPath string
	logger     *zap.Logger
}

func stateFrom(cmd *cobra.Command) (*state, error) {
	s, ok := cmd.Context().Value(stateKey{}).(*state)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	return s, nil
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rowcheck",
		Short: "rowcheck - order-preserving row codec and round-trip harness",
		Long: `rowcheck encodes (sortKey, name, offset) rows into an order-preserving
binary format and runs a concurrent harness that verifies every row survives
an encode/decode round trip unchanged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			logLevel, _ := cmd.Flags().GetString("log-level")

			explicit := configPath != ""
			if !explicit {
				configPath = config.GetDefaultConfigPath()
			}

			// init may overwrite a missing or unreadable file; every other
			// command needs an explicitly named config to load.
			isInit := cmd.Name() == "init"
			cfg := config.DefaultConfig()
			switch {
			case config.ConfigExists(configPath):
				loaded, err := config.LoadConfig(configPath)
				if err != nil && !isInit {
					return err
				}
				if err == nil {
					cfg = loaded
				}
			case explicit && !isInit:
				return errors.Newf("config file does not exist: %s", configPath)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Logging.Level = logLevel
			}

			logger, err := logging.New(cfg.Logging.Level)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, stateKey{}, &state{
				config:     cfg,
				configPath: configPath,
				logger:     logger,
			}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s, err := stateFrom(cmd); err == nil {
				_ = s.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default is $HOME/.config/rowcheck/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newEncodeCmd(),
		newDecodeCmd(),
		newInitCmd(),
		newServeCmd(),
	)

	return rootCmd
}

// Execute runs the root command and exits with a non-zero status on failure.
// A round trip mismatch exits with status 2.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if repro.IsMismatch(err) {
		return exitMismatch
	}
	return exitError
}
