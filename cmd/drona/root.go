package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psarda/drona/internal/config"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Manager
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "drona",
	Short: "AI pair programmer for your terminal",
	Long: `drona is an AI coding assistant that lives in your terminal.

It wraps OpenAI-compatible chat-completion APIs with a tool-calling
agent that can read and edit files, run commands and inspect git state.

Usage:
  drona chat                      Start an interactive chat session
  drona ask "why does X fail?"    One-off question, no tools
  drona commit                    Generate a commit message from staged changes
  drona docstrings -d ./pkg       Add doc comments to exported declarations
  drona sbom                      Audit go.mod dependencies against imports
  drona tools                     List the tools the agent can call
  drona config --init             Write a starter config file

Configuration lives in ~/.drona/config.yaml and a project-local
drona.yaml. API keys come from the environment only (OPENAI_API_KEY
or a .env file); keys in YAML files are ignored.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		return nil
	},

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the command tree.
func Execute() {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a config file (overrides the default locations)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(docstringsCmd)
	rootCmd.AddCommand(sbomCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
