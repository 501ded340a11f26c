// Package docstrings adds missing doc comments to exported Go
// declarations using an LLM to draft the text.
package docstrings

import (
	"context"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/llm"
	"github.com/psarda/drona/internal/types"
	"github.com/psarda/drona/internal/usage"
)

const defaultPrompt = `Write a Go doc comment for this declaration. Go doc comments
start with the declaration's name and describe what it does in one or two
sentences. Respond with the comment text only: no comment markers, no code,
no quotes.

{code}`

// maxSnippetLines caps how much of a declaration goes into the prompt.
const maxSnippetLines = 40

// Completer is the single LLM operation the generator needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Target is one exported declaration lacking a doc comment.
type Target struct {
	Name string
	Kind string // "func", "method" or "type"
	Line int    // 1-based line of the declaration
	Code string // source snippet for the prompt
}

// Generator drafts and splices doc comments into Go source files.
type Generator struct {
	completer Completer
	logger    *zap.Logger
	prompt    string
}

// NewGenerator builds a generator backed by the docstring_writer agent.
func NewGenerator(cfg *config.Manager, tracker *usage.Tracker, logger *zap.Logger) *Generator {
	client := llm.NewClient(cfg, "docstring_writer", tracker, logger)
	parser := client.Parser()
	return &Generator{
		completer: completerFunc(func(ctx context.Context, prompt string) (string, error) {
			resp, err := client.CallSync(ctx, []types.Message{types.UserMessage(prompt)}, nil)
			if err != nil {
				return "", err
			}
			parsed := parser.ParseSyncResponse(resp)
			return strings.TrimSpace(parsed.Content), nil
		}),
		logger: logger,
		prompt: cfg.GetString("prompts.update_docstrings", defaultPrompt),
	}
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// FindTargets parses src and returns the exported functions, methods
// and types that have no doc comment, in source order.
func FindTargets(filename string, src []byte) ([]Target, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	lines := strings.Split(string(src), "\n")
	snippet := func(decl ast.Node) string {
		start := fset.Position(decl.Pos()).Line
		end := fset.Position(decl.End()).Line
		if end-start >= maxSnippetLines {
			end = start + maxSnippetLines - 1
		}
		if start < 1 || end > len(lines) {
			return ""
		}
		return strings.Join(lines[start-1:end], "\n")
	}

	var targets []Target
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !ast.IsExported(d.Name.Name) || d.Doc != nil {
				continue
			}
			kind := "func"
			if d.Recv != nil {
				kind = "method"
			}
			targets = append(targets, Target{
				Name: d.Name.Name,
				Kind: kind,
				Line: fset.Position(d.Pos()).Line,
				Code: snippet(d),
			})
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok || !ast.IsExported(ts.Name.Name) {
					continue
				}
				if d.Doc != nil || ts.Doc != nil {
					continue
				}
				line := fset.Position(d.Pos()).Line
				if len(d.Specs) > 1 {
					line = fset.Position(ts.Pos()).Line
				}
				targets = append(targets, Target{
					Name: ts.Name.Name,
					Kind: "type",
					Line: line,
					Code: snippet(d),
				})
			}
		}
	}
	return targets, nil
}

// ProcessFile adds doc comments to every exported undocumented
// declaration in the file, rewriting it in place. It reports whether
// the file changed. Files where every export is documented are left
// untouched, which makes repeated runs safe.
func (g *Generator) ProcessFile(ctx context.Context, path string) (bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	targets, err := FindTargets(path, src)
	if err != nil {
		return false, err
	}
	if len(targets) == 0 {
		return false, nil
	}
	g.logger.Info("generating doc comments",
		zap.String("file", path),
		zap.Int("targets", len(targets)))

	comments := make(map[int][]string, len(targets))
	for _, target := range targets {
		prompt := strings.ReplaceAll(g.prompt, "{code}", target.Code)
		text, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			g.logger.Warn("skipping declaration",
				zap.String("name", target.Name),
				zap.Error(err))
			continue
		}
		comment := formatComment(text)
		if len(comment) == 0 {
			continue
		}
		comments[target.Line] = comment
	}
	if len(comments) == 0 {
		return false, nil
	}

	updated := spliceComments(src, comments)
	formatted, err := format.Source(updated)
	if err != nil {
		return false, fmt.Errorf("formatting %s after insertion: %w", path, err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}

// ProcessDir runs ProcessFile over every non-test Go file under dir and
// returns how many files changed.
func (g *Generator) ProcessDir(ctx context.Context, dir string) (int, error) {
	var goFiles []string
	err := walkGoFiles(dir, &goFiles)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, path := range goFiles {
		ok, err := g.ProcessFile(ctx, path)
		if err != nil {
			return changed, err
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

func walkGoFiles(dir string, out *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if name == ".git" || name == "vendor" || strings.HasPrefix(name, "_") {
				continue
			}
			if err := walkGoFiles(dir+"/"+name, out); err != nil {
				return err
			}
			continue
		}
		if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			*out = append(*out, dir+"/"+name)
		}
	}
	return nil
}

// formatComment turns raw model output into `// ` comment lines. Fences,
// existing comment markers and surrounding quotes are stripped.
func formatComment(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.Trim(text, "\"' \n")
	if text == "" {
		return nil
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimSpace(line)
		if line == "" && len(out) == 0 {
			continue
		}
		if line == "" {
			out = append(out, "//")
			continue
		}
		out = append(out, "// "+line)
	}
	// Drop trailing blank comment lines.
	for len(out) > 0 && out[len(out)-1] == "//" {
		out = out[:len(out)-1]
	}
	return out
}

// spliceComments inserts comment lines above the given 1-based source
// lines, working bottom-up so earlier insertions don't shift later ones.
func spliceComments(src []byte, comments map[int][]string) []byte {
	lines := strings.Split(string(src), "\n")

	targetLines := make([]int, 0, len(comments))
	for line := range comments {
		targetLines = append(targetLines, line)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(targetLines)))

	for _, line := range targetLines {
		if line < 1 || line > len(lines) {
			continue
		}
		insert := comments[line]
		rest := append([]string{}, lines[line-1:]...)
		lines = append(lines[:line-1], append(insert, rest...)...)
	}
	return []byte(strings.Join(lines, "\n"))
}
