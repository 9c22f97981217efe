package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cptspacemanspiff/battery-alert/internal/config"
)

// NewConfigCommand prints the effective configuration, or writes it with --write.
func NewConfigCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if write {
				if err := config.Save(path, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
				return nil
			}
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "write the effective configuration to the config file")

	return cmd
}
