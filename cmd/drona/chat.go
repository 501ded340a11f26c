package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/ui"
)

var chatQuery string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the coding agent",
	Long: `Start an interactive chat session.

The agent can call tools (read/write files, run commands, inspect git)
while answering. Sensitive tools ask for permission before running.

Mention files with @path/to/file to include their content in the prompt.

With -q, runs a single prompt without the interactive UI and prints
the answer to stdout. Tool confirmations are auto-denied in this mode.

Examples:
  drona chat
  drona chat -q "summarize what internal/llm does"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if chatQuery != "" {
			return runOneShot(chatQuery)
		}
		return runChatUI()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatQuery, "query", "q", "", "Run a single prompt and exit")
}

func runChatUI() error {
	session := ui.NewSession(cfg, logger)

	p := tea.NewProgram(ui.NewModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run chat ui: %w", err)
	}

	fmt.Println(session.Tracker.Summary())
	return nil
}

// runOneShot answers one prompt on the plain terminal. Sensitive tools
// are denied because there is no UI to confirm them.
func runOneShot(query string) error {
	session := ui.NewSession(cfg, logger)

	// Drain confirmation requests, denying each.
	go func() {
		for req := range session.Confirms() {
			req.Respond(false)
		}
	}()

	output, err := session.Engine.Run(context.Background(), ui.ExpandMentions(query))
	if strings.TrimSpace(output) != "" {
		fmt.Println(strings.TrimSpace(output))
	}
	if err != nil {
		return err
	}

	fmt.Println(session.Tracker.Summary())
	return nil
}
