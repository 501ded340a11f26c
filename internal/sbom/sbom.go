// Package sbom builds a software bill of materials for a Go module:
// which dependencies go.mod declares and which source files import them.
package sbom

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// skipDirs are directory names excluded from the source walk.
var skipDirs = map[string]bool{
	".git":         true,
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// ModuleUsage is one declared dependency and the files importing it.
type ModuleUsage struct {
	Path     string   `json:"path"`
	Version  string   `json:"version"`
	Indirect bool     `json:"indirect"`
	Files    []string `json:"files"`
}

// Report is the full bill of materials for one module.
type Report struct {
	ModulePath string        `json:"module"`
	GoVersion  string        `json:"go"`
	Modules    []ModuleUsage `json:"modules"`
}

// UsedCount returns how many declared modules are imported somewhere.
func (r *Report) UsedCount() int {
	n := 0
	for _, m := range r.Modules {
		if len(m.Files) > 0 {
			n++
		}
	}
	return n
}

// Scan parses <root>/go.mod and walks the module's Go sources, mapping
// every declared dependency to the files that import it. Files that
// fail to parse are skipped.
func Scan(root string) (*Report, error) {
	modPath := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		return nil, fmt.Errorf("reading go.mod: %w", err)
	}
	file, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing go.mod: %w", err)
	}

	report := &Report{}
	if file.Module != nil {
		report.ModulePath = file.Module.Mod.Path
	}
	if file.Go != nil {
		report.GoVersion = file.Go.Version
	}

	usage := make(map[string]*ModuleUsage, len(file.Require))
	var modules []string
	for _, req := range file.Require {
		usage[req.Mod.Path] = &ModuleUsage{
			Path:     req.Mod.Path,
			Version:  req.Mod.Version,
			Indirect: req.Indirect,
			Files:    []string{},
		}
		modules = append(modules, req.Mod.Path)
	}
	// Longest module path wins when prefixes nest.
	sort.Slice(modules, func(i, j int) bool { return len(modules[i]) > len(modules[j]) })

	fileImports, err := collectImports(root)
	if err != nil {
		return nil, err
	}

	for relPath, imports := range fileImports {
		for _, imp := range imports {
			if mod := matchModule(imp, modules); mod != "" {
				usage[mod].Files = append(usage[mod].Files, relPath)
			}
		}
	}

	for _, mod := range modules {
		u := usage[mod]
		sort.Strings(u.Files)
		u.Files = dedupe(u.Files)
	}

	report.Modules = make([]ModuleUsage, 0, len(modules))
	sort.Strings(modules)
	for _, mod := range modules {
		report.Modules = append(report.Modules, *usage[mod])
	}
	return report, nil
}

// collectImports maps each Go file (relative to root) to its imports.
func collectImports(root string) (map[string][]string, error) {
	out := make(map[string][]string)
	fset := token.NewFileSet()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), "_")) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".go") {
			return nil
		}
		parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return nil // unparsable files are not part of the build
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		var imports []string
		for _, imp := range parsed.Imports {
			imports = append(imports, strings.Trim(imp.Path.Value, `"`))
		}
		out[rel] = imports
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking sources: %w", err)
	}
	return out, nil
}

// matchModule finds the module providing an import path. Candidates are
// ordered longest-first so nested module paths resolve correctly.
func matchModule(importPath string, modules []string) string {
	for _, mod := range modules {
		if importPath == mod || strings.HasPrefix(importPath, mod+"/") {
			return mod
		}
	}
	return ""
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
