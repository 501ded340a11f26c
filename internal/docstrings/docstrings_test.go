package docstrings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const sample = `package demo

import "fmt"

// Documented already has a comment.
func Documented() {}

func Exported(x int) string {
	return fmt.Sprint(x)
}

func unexported() {}

type Widget struct {
	Name string
}

func (w *Widget) Render() string { return w.Name }
`

func TestFindTargets(t *testing.T) {
	targets, err := FindTargets("demo.go", []byte(sample))
	if err != nil {
		t.Fatalf("FindTargets: %v", err)
	}

	want := []struct {
		name string
		kind string
	}{
		{"Exported", "func"},
		{"Widget", "type"},
		{"Render", "method"},
	}
	if len(targets) != len(want) {
		t.Fatalf("targets = %+v, want %d entries", targets, len(want))
	}
	for i, w := range want {
		if targets[i].Name != w.name || targets[i].Kind != w.kind {
			t.Errorf("target %d = %+v, want %s %s", i, targets[i], w.kind, w.name)
		}
		if targets[i].Code == "" || targets[i].Line == 0 {
			t.Errorf("target %d missing snippet or line: %+v", i, targets[i])
		}
	}
}

func TestFormatComment(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "plain sentence",
			in:   "Exported converts x to a string.",
			want: []string{"// Exported converts x to a string."},
		},
		{
			name: "already commented",
			in:   "// Exported converts x to a string.",
			want: []string{"// Exported converts x to a string."},
		},
		{
			name: "fenced and quoted",
			in:   "```\n\"Widget holds a name.\"\n```",
			want: []string{"// Widget holds a name."},
		},
		{
			name: "multi line",
			in:   "Render draws the widget.\n\nIt returns the name.",
			want: []string{"// Render draws the widget.", "//", "// It returns the name."},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatComment(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("formatComment(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.go")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	var calls int
	gen := &Generator{
		completer: completerFunc(func(_ context.Context, prompt string) (string, error) {
			calls++
			switch {
			case strings.Contains(prompt, "func Exported"):
				return "Exported converts x to its decimal form.", nil
			case strings.Contains(prompt, "type Widget"):
				return "Widget is a named drawable element.", nil
			default:
				return "Render returns the widget name.", nil
			}
		}),
		logger: zap.NewNop(),
		prompt: defaultPrompt,
	}

	changed, err := gen.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if !changed {
		t.Fatal("expected the file to change")
	}
	if calls != 3 {
		t.Errorf("LLM calls = %d, want 3", calls)
	}

	updated, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(updated)
	for _, want := range []string{
		"// Exported converts x to its decimal form.\nfunc Exported(x int) string {",
		"// Widget is a named drawable element.\ntype Widget struct {",
		"// Render returns the widget name.\nfunc (w *Widget) Render() string",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing insertion %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "// Documented already has a comment.") != 1 {
		t.Error("existing comments must be untouched")
	}

	// Second run finds nothing to do.
	changed, err = gen.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("second ProcessFile: %v", err)
	}
	if changed {
		t.Error("repeated run must be a no-op")
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != out {
		t.Error("repeated run must not rewrite the file")
	}
}

func TestProcessDirSkipsTests(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.go":        "package a\n\nfunc Exported() {}\n",
		"a_test.go":   "package a\n\nfunc TestExported(t *testing.T) {}\n",
		"sub/b.go":    "package sub\n\nfunc AlsoExported() {}\n",
		"vendor/v.go": "package v\n\nfunc Vendored() {}\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var prompts []string
	gen := &Generator{
		completer: completerFunc(func(_ context.Context, prompt string) (string, error) {
			prompts = append(prompts, prompt)
			return "Does the thing.", nil
		}),
		logger: zap.NewNop(),
		prompt: defaultPrompt,
	}

	changed, err := gen.ProcessDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDir: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2 (tests and vendor skipped)", changed)
	}
	for _, p := range prompts {
		if strings.Contains(p, "TestExported") || strings.Contains(p, "Vendored") {
			t.Errorf("prompted for excluded file: %s", p)
		}
	}
}
