package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/agent"
	"github.com/psarda/drona/internal/usage"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-off question without tool calling",
	Long: `Ask a one-off question using the qahelper agent.

No tools are exposed to the model, so this is safe for quick questions
that should not touch the working tree.

Examples:
  drona ask "what does errors.Is do?"
  drona ask how do I profile a goroutine leak`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("empty question")
		}

		tracker := usage.NewTracker()
		eng := agent.New(cfg, "qahelper", agent.Options{
			Tracker: tracker,
			Logger:  logger,
		})

		answer, err := eng.Run(context.Background(), question)
		if strings.TrimSpace(answer) != "" {
			fmt.Println(strings.TrimSpace(answer))
		}
		if err != nil {
			return err
		}

		if verbose {
			fmt.Println(tracker.Summary())
		}
		return nil
	},
}
