package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/psarda/drona/internal/types"
)

// skipDirs are directory names excluded from recursive walks.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
	"dist":         true,
	"build":        true,
}

// ReadFileTool returns the complete contents of a file.
type ReadFileTool struct{}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the complete contents of a file. Returns the file content as a string."
}

func (t *ReadFileTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"filepath": {Type: "string", Description: "Path of the file to read"},
		},
		Required: []string{"filepath"},
	}
}

func (t *ReadFileTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path := stringArg(args, "filepath", "")
	if path == "" {
		return "", fmt.Errorf("filepath is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return string(data), nil
}

// WriteFileTool creates or overwrites a file, creating parent
// directories as needed.
type WriteFileTool struct{}

func (t *WriteFileTool) Name() string { return "write_file" }

func (t *WriteFileTool) Description() string {
	return "Write content to a file. Creates the file if it doesn't exist, overwrites if it does."
}

func (t *WriteFileTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"filepath": {Type: "string", Description: "Path of the file to write"},
			"content":  {Type: "string", Description: "Full content to write"},
		},
		Required: []string{"filepath", "content"},
	}
}

func (t *WriteFileTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path := stringArg(args, "filepath", "")
	if path == "" {
		return "", fmt.Errorf("filepath is required")
	}
	content, _ := args["content"].(string)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating parent directories: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return fmt.Sprintf("Successfully wrote to %s", path), nil
}

// ListFilesTool lists the entries of a single directory.
type ListFilesTool struct{}

func (t *ListFilesTool) Name() string { return "list_files" }

func (t *ListFilesTool) Description() string {
	return "List all files in a directory. Returns a JSON array of filenames."
}

func (t *ListFilesTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"directory": {Type: "string", Description: "Directory to list, defaults to the current directory"},
		},
		Required: []string{},
	}
}

func (t *ListFilesTool) Execute(_ context.Context, args map[string]any) (string, error) {
	dir := stringArg(args, "directory", ".")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	out, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// FindSourceFilesTool recursively finds source files by extension.
type FindSourceFilesTool struct{}

func (t *FindSourceFilesTool) Name() string { return "find_source_files" }

func (t *FindSourceFilesTool) Description() string {
	return "Recursively find source files with a given extension in a directory. Returns paths relative to the directory."
}

func (t *FindSourceFilesTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"directory": {Type: "string", Description: "Root directory to search, defaults to the current directory"},
			"extension": {Type: "string", Description: "File extension to match, defaults to .go"},
		},
		Required: []string{},
	}
}

func (t *FindSourceFilesTool) Execute(_ context.Context, args map[string]any) (string, error) {
	dir := stringArg(args, "directory", ".")
	ext := stringArg(args, "extension", ".go")
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ext) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("finding source files: %w", err)
	}
	if found == nil {
		found = []string{}
	}
	out, err := json.Marshal(found)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ProjectStructureTool summarizes the directories and Go files of a
// project tree.
type ProjectStructureTool struct{}

func (t *ProjectStructureTool) Name() string { return "get_project_structure" }

func (t *ProjectStructureTool) Description() string {
	return "Get an overview of the project structure including directories and Go source files."
}

func (t *ProjectStructureTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"root_dir": {Type: "string", Description: "Project root, defaults to the current directory"},
		},
		Required: []string{},
	}
}

func (t *ProjectStructureTool) Execute(_ context.Context, args map[string]any) (string, error) {
	root := stringArg(args, "root_dir", ".")
	structure := struct {
		Root        string   `json:"root"`
		Directories []string `json:"directories"`
		GoFiles     []string `json:"go_files"`
	}{Root: root, Directories: []string{}, GoFiles: []string{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if skipDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			if rel != "." {
				structure.Directories = append(structure.Directories, rel)
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".go") {
			structure.GoFiles = append(structure.GoFiles, rel)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("getting project structure: %w", err)
	}
	out, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CheckTestExistsTool looks for the _test.go counterpart of a source file.
type CheckTestExistsTool struct{}

func (t *CheckTestExistsTool) Name() string { return "check_test_exists" }

func (t *CheckTestExistsTool) Description() string {
	return "Check if a test file exists for a given Go source file. Returns the test file path if it exists."
}

func (t *CheckTestExistsTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"source_file": {Type: "string", Description: "Path of the source file to check"},
		},
		Required: []string{"source_file"},
	}
}

func (t *CheckTestExistsTool) Execute(_ context.Context, args map[string]any) (string, error) {
	source := stringArg(args, "source_file", "")
	if source == "" {
		return "", fmt.Errorf("source_file is required")
	}
	base := strings.TrimSuffix(source, ".go")
	testPath := base + "_test.go"

	type report struct {
		Exists        bool   `json:"exists"`
		Path          string `json:"path,omitempty"`
		SuggestedPath string `json:"suggested_path,omitempty"`
	}
	var rep report
	if _, err := os.Stat(testPath); err == nil {
		rep = report{Exists: true, Path: testPath}
	} else {
		rep = report{Exists: false, SuggestedPath: testPath}
	}
	out, err := json.Marshal(rep)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
