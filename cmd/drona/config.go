package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/psarda/drona/internal/config"
)

var configInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or initialize configuration",
	Long: `Show the merged configuration, or write a starter config file.

Configuration is merged from built-in defaults, ~/.drona/config.yaml,
a project-local drona.yaml and DRONA_* environment variables, in that
order. API keys are only ever read from the environment.

Examples:
  drona config            # Show the merged configuration
  drona config --init     # Write ~/.drona/config.yaml with defaults`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInit {
			path := cfgPath
			if path == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("resolve home directory: %w", err)
				}
				path = filepath.Join(home, ".drona", "config.yaml")
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		}

		data, err := yaml.Marshal(cfg.AllSettings())
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a starter config file")
}
