package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psarda/drona/internal/commit"
	"github.com/psarda/drona/internal/ui"
	"github.com/psarda/drona/internal/usage"
)

var (
	commitYes    bool
	commitDryRun bool
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Generate a commit message from staged changes",
	Long: `Generate a commit message from the staged diff.

Per-file diffs are summarized in parallel batches, then a coordination
call merges the summaries into one conventional commit message. You
review the message before anything is committed.

Examples:
  drona commit             # Generate, review, commit
  drona commit --yes       # Commit without the prompt
  drona commit --dry-run   # Print the message and stop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker := usage.NewTracker()
		analyzer := commit.NewAnalyzer(cfg, tracker, logger)

		ctx := context.Background()
		styles := ui.DefaultStyles()

		files, err := analyzer.StagedFiles(ctx)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No staged changes found. Stage files with 'git add' first.")
			return nil
		}
		fmt.Printf("Analyzing %d staged file(s)...\n", len(files))

		message, err := analyzer.Generate(ctx)
		if errors.Is(err, commit.ErrNoStagedChanges) {
			fmt.Println("No staged changes found. Stage files with 'git add' first.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println(styles.SystemMessage.Render("Proposed commit message:"))
		fmt.Println()
		fmt.Println(styles.AssistantMessage.Render(message))
		fmt.Println()

		if commitDryRun {
			return nil
		}

		if !commitYes && !confirmCommit() {
			fmt.Println("Aborted.")
			return nil
		}

		out, err := exec.CommandContext(ctx, "git", "commit", "-m", message).CombinedOutput()
		if err != nil {
			return fmt.Errorf("git commit: %v\n%s", err, strings.TrimSpace(string(out)))
		}
		fmt.Println(strings.TrimSpace(string(out)))

		if verbose {
			fmt.Println(tracker.Summary())
		}
		return nil
	},
}

func init() {
	commitCmd.Flags().BoolVarP(&commitYes, "yes", "y", false, "Commit without asking for confirmation")
	commitCmd.Flags().BoolVar(&commitDryRun, "dry-run", false, "Print the message without committing")
}

func confirmCommit() bool {
	fmt.Print("Commit with this message? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
