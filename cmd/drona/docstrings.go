package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/docstrings"
	"github.com/psarda/drona/internal/usage"
)

var (
	docFile string
	docDir  string
)

var docstringsCmd = &cobra.Command{
	Use:   "docstrings",
	Short: "Generate doc comments for exported declarations",
	Long: `Generate doc comments for exported functions, methods and types
that lack them. Files are rewritten in place and gofmt-formatted.

Test files, vendor/ and generated-looking directories are skipped.

Examples:
  drona docstrings -f internal/llm/client.go
  drona docstrings -d ./internal`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if docFile != "" && docDir != "" {
			return errors.New("specify either --file or --dir, not both")
		}
		if docFile == "" && docDir == "" {
			return errors.New("specify --file or --dir")
		}

		tracker := usage.NewTracker()
		gen := docstrings.NewGenerator(cfg, tracker, logger)
		ctx := context.Background()

		if docFile != "" {
			changed, err := gen.ProcessFile(ctx, docFile)
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("Updated %s\n", docFile)
			} else {
				fmt.Printf("%s: nothing to document\n", docFile)
			}
		} else {
			changed, err := gen.ProcessDir(ctx, docDir)
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d file(s) under %s\n", changed, docDir)
		}

		if verbose {
			fmt.Println(tracker.Summary())
		}
		return nil
	},
}

func init() {
	docstringsCmd.Flags().StringVarP(&docFile, "file", "f", "", "Process a single Go file")
	docstringsCmd.Flags().StringVarP(&docDir, "dir", "d", "", "Process a directory recursively")
}
