package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/psarda/drona/internal/types"
)

// commandTimeout bounds one run_command invocation.
const commandTimeout = 30 * time.Second

// testTimeout bounds one run_tests invocation; test suites get longer.
const testTimeout = 60 * time.Second

type commandResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"returncode"`
	Error      string `json:"error,omitempty"`
	Passed     *bool  `json:"passed,omitempty"`
}

func runShell(ctx context.Context, command string, timeout time.Duration) commandResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.Error = fmt.Sprintf("Command timed out after %d seconds", int(timeout.Seconds()))
		result.ReturnCode = -1
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ReturnCode = exitErr.ExitCode()
			result.Error = fmt.Sprintf("Command failed with exit code %d", result.ReturnCode)
		} else {
			result.ReturnCode = -1
			result.Error = err.Error()
		}
	}
	return result
}

// RunCommandTool runs a shell command with a hard timeout and reports
// the outcome as JSON so the model can inspect stdout, stderr and the
// exit code.
type RunCommandTool struct{}

func (t *RunCommandTool) Name() string { return "run_command" }

func (t *RunCommandTool) Description() string {
	return "Run a shell command and return stdout, stderr, and exit code. Use for running tests, linters, etc."
}

func (t *RunCommandTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"command": {Type: "string", Description: "Shell command to execute"},
		},
		Required: []string{"command"},
	}
}

func (t *RunCommandTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command := stringArg(args, "command", "")
	if command == "" {
		return "", fmt.Errorf("command is required")
	}
	result := runShell(ctx, command, commandTimeout)
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// RunTestsTool runs go test on a package path and reports results.
type RunTestsTool struct{}

func (t *RunTestsTool) Name() string { return "run_tests" }

func (t *RunTestsTool) Description() string {
	return "Run go test on a package path or file. Returns test results."
}

func (t *RunTestsTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"path": {Type: "string", Description: "Package path to test, e.g. ./internal/llm"},
		},
		Required: []string{"path"},
	}
}

func (t *RunTestsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	path := stringArg(args, "path", "")
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	result := runShell(ctx, fmt.Sprintf("go test %s -v", path), testTimeout)
	passed := result.ReturnCode == 0 && result.Error == ""
	result.Passed = &passed
	out, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
