package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"strings"

	"github.com/psarda/drona/internal/types"
)

// ParseGoFileTool extracts the structure of a Go source file so the
// model can navigate code without reading whole files.
type ParseGoFileTool struct{}

func (t *ParseGoFileTool) Name() string { return "parse_go_file" }

func (t *ParseGoFileTool) Description() string {
	return "Parse a Go file and return its structure: package name, imports, types, and functions with their signatures."
}

func (t *ParseGoFileTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"filepath": {Type: "string", Description: "Path of the Go file to parse"},
		},
		Required: []string{"filepath"},
	}
}

type goFileStructure struct {
	Package   string           `json:"package"`
	Imports   []string         `json:"imports"`
	Types     []goTypeInfo     `json:"types"`
	Functions []goFunctionInfo `json:"functions"`
}

type goTypeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

type goFunctionInfo struct {
	Name     string   `json:"name"`
	Receiver string   `json:"receiver,omitempty"`
	Params   []string `json:"params"`
	Line     int      `json:"line"`
}

func (t *ParseGoFileTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path := stringArg(args, "filepath", "")
	if path == "" {
		return "", fmt.Errorf("filepath is required")
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("parsing Go file: %w", err)
	}

	structure := goFileStructure{
		Package:   file.Name.Name,
		Imports:   []string{},
		Types:     []goTypeInfo{},
		Functions: []goFunctionInfo{},
	}
	for _, imp := range file.Imports {
		structure.Imports = append(structure.Imports, strings.Trim(imp.Path.Value, `"`))
	}

	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				structure.Types = append(structure.Types, goTypeInfo{
					Name: ts.Name.Name,
					Kind: typeKind(ts.Type),
					Line: fset.Position(ts.Pos()).Line,
				})
			}
		case *ast.FuncDecl:
			info := goFunctionInfo{
				Name:   d.Name.Name,
				Params: []string{},
				Line:   fset.Position(d.Pos()).Line,
			}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				info.Receiver = exprString(d.Recv.List[0].Type)
			}
			if d.Type.Params != nil {
				for _, field := range d.Type.Params.List {
					typ := exprString(field.Type)
					if len(field.Names) == 0 {
						info.Params = append(info.Params, typ)
						continue
					}
					for _, name := range field.Names {
						info.Params = append(info.Params, name.Name+" "+typ)
					}
				}
			}
			structure.Functions = append(structure.Functions, info)
		}
	}

	out, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GetFunctionCodeTool extracts the source of one named function or
// method so the model can inspect it without reading the whole file.
type GetFunctionCodeTool struct{}

func (t *GetFunctionCodeTool) Name() string { return "get_function_code" }

func (t *GetFunctionCodeTool) Description() string {
	return "Extract the source code of a specific function or method from a Go file."
}

func (t *GetFunctionCodeTool) Schema() types.Schema {
	return types.Schema{
		Type: "object",
		Properties: map[string]types.Property{
			"filepath":      {Type: "string", Description: "Path of the Go file"},
			"function_name": {Type: "string", Description: "Name of the function or method to extract"},
		},
		Required: []string{"filepath", "function_name"},
	}
}

func (t *GetFunctionCodeTool) Execute(_ context.Context, args map[string]any) (string, error) {
	path := stringArg(args, "filepath", "")
	name := stringArg(args, "function_name", "")
	if path == "" || name == "" {
		return "", fmt.Errorf("filepath and function_name are required")
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return "", fmt.Errorf("parsing Go file: %w", err)
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name != name {
			continue
		}
		var buf strings.Builder
		if err := printer.Fprint(&buf, fset, fn); err != nil {
			return "", fmt.Errorf("printing function: %w", err)
		}
		return buf.String(), nil
	}
	return fmt.Sprintf("Function '%s' not found in %s", name, path), nil
}

func typeKind(expr ast.Expr) string {
	switch expr.(type) {
	case *ast.StructType:
		return "struct"
	case *ast.InterfaceType:
		return "interface"
	case *ast.MapType:
		return "map"
	case *ast.ArrayType:
		return "slice"
	case *ast.FuncType:
		return "func"
	default:
		return "alias"
	}
}

func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.ArrayType:
		return "[]" + exprString(e.Elt)
	case *ast.MapType:
		return "map[" + exprString(e.Key) + "]" + exprString(e.Value)
	case *ast.Ellipsis:
		return "..." + exprString(e.Elt)
	case *ast.FuncType:
		return "func"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.ChanType:
		return "chan " + exprString(e.Value)
	default:
		return fmt.Sprintf("%T", expr)
	}
}
