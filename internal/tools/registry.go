// Package tools provides the built-in tool framework for the drona agent.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/psarda/drona/internal/types"
)

// Tool is one callable capability exposed to the model. Schemas are
// declared explicitly rather than inferred from handler signatures.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Schema returns the JSON-schema object describing the arguments.
	Schema() types.Schema

	// Execute runs the tool with decoded arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Registry manages tool registration, provider-facing definitions and
// dispatch. Dispatch failures of any kind become result strings so a
// misbehaving tool can never abort the agent loop.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// NewDefaultRegistry creates a registry with every built-in tool.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&ReadFileTool{})
	r.Register(&WriteFileTool{})
	r.Register(&ListFilesTool{})
	r.Register(&FindSourceFilesTool{})
	r.Register(&ProjectStructureTool{})
	r.Register(&CheckTestExistsTool{})
	r.Register(&ParseGoFileTool{})
	r.Register(&GetFunctionCodeTool{})
	r.Register(&GitDiffTool{})
	r.Register(&GitStatusTool{})
	r.Register(&RunCommandTool{})
	r.Register(&RunTestsTool{})
	return r
}

// Register adds a tool. Re-registering a name replaces the tool but
// keeps its original position in the definition order.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, exists := r.tools[name]
	return tool, exists
}

// Names returns registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns the provider-facing tool definitions in
// registration order.
func (r *Registry) Definitions() []types.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]types.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, types.ToolDefinition{
			Type: "function",
			Function: types.FunctionDef{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Schema(),
			},
		})
	}
	return defs
}

// Call dispatches one tool invocation. The result is always a string:
// unknown names, malformed argument JSON, handler errors and handler
// panics are all rendered as error text for the model to read.
func (r *Registry) Call(ctx context.Context, name, argumentsJSON string) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			result = fmt.Sprintf("Error executing tool %s: %v", name, rec)
		}
	}()

	tool, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("Error: Tool %s not found.", name)
	}

	args := map[string]any{}
	if trimmed := strings.TrimSpace(argumentsJSON); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return fmt.Sprintf("Error executing tool %s: invalid arguments: %v", name, err)
		}
	}

	out, err := tool.Execute(ctx, args)
	if err != nil {
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	return out
}

// sensitiveTools lists tools whose execution needs user confirmation.
var sensitiveTools = map[string]bool{
	"write_file":  true,
	"run_command": true,
	"run_tests":   true,
}

// IsSensitive reports whether a tool modifies state or executes
// arbitrary commands and therefore requires confirmation.
func IsSensitive(name string) bool { return sensitiveTools[name] }

// stringArg extracts a string argument, falling back to def when the
// key is absent, empty or not a string.
func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}
