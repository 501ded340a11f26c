package tools

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/psarda/drona/internal/types"
)

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", args[0], string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// GitDiffTool returns the staged diff of the current repository.
type GitDiffTool struct{}

func (t *GitDiffTool) Name() string { return "get_git_diff" }

func (t *GitDiffTool) Description() string {
	return "Get staged changes in the current git repository."
}

func (t *GitDiffTool) Schema() types.Schema {
	return types.Schema{
		Type:       "object",
		Properties: map[string]types.Property{},
		Required:   []string{},
	}
}

func (t *GitDiffTool) Execute(ctx context.Context, _ map[string]any) (string, error) {
	return runGit(ctx, "", "diff", "--staged")
}

// GitStatusTool returns the short-format git status.
type GitStatusTool struct{}

func (t *GitStatusTool) Name() string { return "get_git_status" }

func (t *GitStatusTool) Description() string {
	return "Get git status showing modified, staged, and untracked files."
}

func (t *GitStatusTool) Schema() types.Schema {
	return types.Schema{
		Type:       "object",
		Properties: map[string]types.Property{},
		Required:   []string{},
	}
}

func (t *GitStatusTool) Execute(ctx context.Context, _ map[string]any) (string, error) {
	return runGit(ctx, "", "status", "--short")
}
