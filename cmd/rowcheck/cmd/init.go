/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/ssargent/rowcheck/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a default configuration file.

The file is written to --config, or to $HOME/.config/rowcheck/config.yaml when
no path is given. An existing file is left untouched unless --force is set.

Examples:
  rowcheck init
  rowcheck init --config ./rowcheck.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := stateFrom(cmd)
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")

			if config.ConfigExists(s.configPath) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", s.configPath)
				return nil
			}

			if err := config.SaveConfig(config.DefaultConfig(), s.configPath); err != nil {
				return err
			}

			cmd.Printf("Wrote default config to %s\n", s.configPath)
			return nil
		},
	}

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	return initCmd
}
