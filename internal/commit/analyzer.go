// Package commit generates commit messages from staged changes by
// analyzing per-file diffs in parallel and coordinating the summaries
// into one message.
package commit

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/llm"
	"github.com/psarda/drona/internal/types"
	"github.com/psarda/drona/internal/usage"
)

// Cost thresholds for batching per-file analyses.
const (
	// smallFileThreshold groups diffs below this size into shared batches.
	smallFileThreshold = 500
	// maxBatchSize caps how many small diffs share one LLM call.
	maxBatchSize = 3
	// maxConcurrent bounds parallel LLM calls during fan-out.
	maxConcurrent = 4
	// maxDiffChars truncates oversized diffs before prompting.
	maxDiffChars = 2000
)

// ErrNoStagedChanges is returned when the index is empty.
var ErrNoStagedChanges = errors.New("no staged changes found")

const defaultFilePrompt = `Analyze this git diff and provide a 1-line summary (max 15 words).
Focus on: what changed and why it matters. Be specific about the change.

{diff}`

const defaultCoordinatorPrompt = `Generate a git commit message from these file summaries.

Rules:
- First line: imperative mood summary, max 50 chars (e.g., "Add user authentication")
- Blank line after first line
- Bullet points for each significant change
- Max 72 chars per line
- Be concise but informative

File changes:
{summaries}`

// Completer is the single LLM operation the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FileDiff pairs a staged file with its (possibly truncated) diff.
type FileDiff struct {
	Path string
	Diff string
}

type batchResult struct {
	files   []string
	summary string
	err     error
}

// Analyzer fans out per-file diff analysis across bounded concurrent
// LLM calls and fans the summaries back into one commit message.
type Analyzer struct {
	completer         Completer
	logger            *zap.Logger
	filePrompt        string
	coordinatorPrompt string

	// git runs a git subcommand and returns stdout.
	git func(ctx context.Context, args ...string) (string, error)
}

// NewAnalyzer builds an analyzer backed by the commit_generator agent.
func NewAnalyzer(cfg *config.Manager, tracker *usage.Tracker, logger *zap.Logger) *Analyzer {
	client := llm.NewClient(cfg, "commit_generator", tracker, logger)
	return &Analyzer{
		completer:         &clientCompleter{client: client, parser: client.Parser()},
		logger:            logger,
		filePrompt:        cfg.GetString("prompts.file_analysis", defaultFilePrompt),
		coordinatorPrompt: cfg.GetString("prompts.commit_coordination", defaultCoordinatorPrompt),
		git:               runGit,
	}
}

// clientCompleter adapts the LLM client to the Completer interface.
type clientCompleter struct {
	client *llm.Client
	parser *llm.Parser
}

func (c *clientCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CallSync(ctx, []types.Message{types.UserMessage(prompt)}, nil)
	if err != nil {
		return "", err
	}
	parsed := c.parser.ParseSyncResponse(resp)
	return strings.TrimSpace(parsed.Content), nil
}

func runGit(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", args[0], string(exitErr.Stderr))
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return string(out), nil
}

// StagedFiles lists the paths with staged changes.
func (a *Analyzer) StagedFiles(ctx context.Context) ([]string, error) {
	out, err := a.git(ctx, "diff", "--staged", "--name-only")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if f := strings.TrimSpace(line); f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// fileDiff returns one file's staged diff, truncated for cost.
func (a *Analyzer) fileDiff(ctx context.Context, path string) (string, error) {
	diff, err := a.git(ctx, "diff", "--staged", "--", path)
	if err != nil {
		return "", err
	}
	if len(diff) > maxDiffChars {
		diff = diff[:maxDiffChars] + "\n... (truncated for brevity)"
	}
	return diff, nil
}

// createBatches groups small diffs up to maxBatchSize per batch while
// giving every large diff its own batch. Input order is preserved
// within each batch.
func createBatches(diffs []FileDiff) [][]FileDiff {
	var batches [][]FileDiff
	var small []FileDiff

	for _, fd := range diffs {
		if len(fd.Diff) < smallFileThreshold {
			small = append(small, fd)
			if len(small) >= maxBatchSize {
				batches = append(batches, small)
				small = nil
			}
			continue
		}
		batches = append(batches, []FileDiff{fd})
	}
	if len(small) > 0 {
		batches = append(batches, small)
	}
	return batches
}

func (a *Analyzer) batchPrompt(batch []FileDiff) string {
	if len(batch) == 1 {
		return strings.ReplaceAll(a.filePrompt, "{diff}", batch[0].Diff)
	}
	parts := make([]string, 0, len(batch))
	for _, fd := range batch {
		parts = append(parts, fmt.Sprintf("File: %s\n%s", fd.Path, fd.Diff))
	}
	return strings.ReplaceAll(a.filePrompt, "{diff}", strings.Join(parts, "\n---\n"))
}

// analyzeBatches fans out one LLM call per batch, at most maxConcurrent
// in flight. A failing batch never aborts the others.
func (a *Analyzer) analyzeBatches(ctx context.Context, batches [][]FileDiff) []batchResult {
	results := make([]batchResult, len(batches))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []FileDiff) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			files := make([]string, 0, len(batch))
			for _, fd := range batch {
				files = append(files, fd.Path)
			}
			summary, err := a.completer.Complete(ctx, a.batchPrompt(batch))
			results[i] = batchResult{files: files, summary: summary, err: err}
		}(i, batch)
	}
	wg.Wait()
	return results
}

// Generate analyzes all staged changes and returns a commit message.
func (a *Analyzer) Generate(ctx context.Context) (string, error) {
	files, err := a.StagedFiles(ctx)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", ErrNoStagedChanges
	}
	a.logger.Info("analyzing staged files", zap.Int("files", len(files)))

	diffs := make([]FileDiff, 0, len(files))
	for _, f := range files {
		diff, err := a.fileDiff(ctx, f)
		if err != nil {
			return "", err
		}
		diffs = append(diffs, FileDiff{Path: f, Diff: diff})
	}

	batches := createBatches(diffs)
	a.logger.Info("created analysis batches", zap.Int("batches", len(batches)))

	results := a.analyzeBatches(ctx, batches)
	var summaries []string
	for _, r := range results {
		if r.err != nil {
			a.logger.Warn("batch analysis failed",
				zap.Strings("files", r.files),
				zap.Error(r.err))
			continue
		}
		if r.summary == "" {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("- %s: %s", strings.Join(r.files, ", "), r.summary))
	}
	if len(summaries) == 0 {
		return "", errors.New("all file analyses failed")
	}

	prompt := strings.ReplaceAll(a.coordinatorPrompt, "{summaries}", strings.Join(summaries, "\n"))
	message, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return cleanMessage(message), nil
}

// cleanMessage strips markdown fences some models wrap output in.
func cleanMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if strings.HasPrefix(msg, "```") {
		msg = strings.TrimPrefix(msg, "```")
		if idx := strings.Index(msg, "\n"); idx >= 0 && !strings.Contains(msg[:idx], " ") {
			// Drop a language tag on the opening fence.
			msg = msg[idx+1:]
		}
		msg = strings.TrimSuffix(strings.TrimSpace(msg), "```")
	}
	return strings.TrimSpace(msg)
}
