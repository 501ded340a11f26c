package agent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/tools"
	"github.com/psarda/drona/internal/types"
)

func newTestEngine(t *testing.T, handler http.Handler, stream bool, opts Options) *Engine {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("OPENAI_API_KEY", "test-key")

	content := fmt.Sprintf(`
core:
  llm_retries: 0
providers:
  openai:
    base_url: %s
agents:
  chat:
    provider: openai
    model: test-model
    stream: %v
    system_prompt: You are a coding assistant.
`, server.URL, stream)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, "chat", opts)
}

// echoRegistry returns a registry with one recording tool.
func echoRegistry(executed *[]string) *tools.Registry {
	r := tools.NewRegistry()
	r.Register(&recordingTool{name: "get_git_status", executed: executed})
	return r
}

type recordingTool struct {
	name     string
	executed *[]string
}

func (rt *recordingTool) Name() string        { return rt.name }
func (rt *recordingTool) Description() string { return "records invocations" }
func (rt *recordingTool) Schema() types.Schema {
	return types.Schema{Type: "object", Properties: map[string]types.Property{}, Required: []string{}}
}
func (rt *recordingTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	*rt.executed = append(*rt.executed, rt.name)
	return "M main.go", nil
}

func sseToolCallThenDone() http.Handler {
	var hits int
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/event-stream")
		if hits == 1 {
			// Content streams first, then the tool call arrives in
			// fragments spread over several chunks.
			lines := []string{
				`data: {"choices":[{"delta":{"content":"Checking"}}]}`,
				`data: {"choices":[{"delta":{"content":" status."}}]}`,
				`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_git_"}}]}}]}`,
				`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"status","arguments":"{}"}}]}}]}`,
				`data: {"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
				`data: [DONE]`,
			}
			fmt.Fprint(w, strings.Join(lines, "\n"))
			return
		}
		lines := []string{
			`data: {"choices":[{"delta":{"content":"Done"}}]}`,
			`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`data: [DONE]`,
		}
		fmt.Fprint(w, strings.Join(lines, "\n"))
	})
}

func TestRunStreamToolScenario(t *testing.T) {
	var executed []string
	engine := newTestEngine(t, sseToolCallThenDone(), true, Options{
		Registry: echoRegistry(&executed),
	})

	var tokens []string
	var toolEvents []types.Event
	for ev := range engine.RunStream(context.Background(), "what changed?") {
		switch ev.Type {
		case types.EventToken:
			tokens = append(tokens, ev.Token)
		case types.EventToolCall:
			toolEvents = append(toolEvents, ev)
		case types.EventError:
			t.Fatalf("unexpected error event: %v", ev.Err)
		}
		if ev.RunID == "" {
			t.Error("every event must carry a run id")
		}
	}

	if got := strings.Join(tokens, ""); got != "Checking status.Done" {
		t.Errorf("tokens = %q", got)
	}
	if len(toolEvents) != 1 || toolEvents[0].ToolName != "get_git_status" {
		t.Fatalf("tool events = %+v", toolEvents)
	}
	if len(executed) != 1 {
		t.Errorf("tool executed %d times, want 1", len(executed))
	}

	// Exact history shape: system, user, assistant with tool calls,
	// tool result, final assistant content.
	msgs := engine.Messages()
	if len(msgs) != 5 {
		t.Fatalf("history length = %d, want 5: %+v", len(msgs), msgs)
	}
	wantRoles := []string{
		types.RoleSystem, types.RoleUser, types.RoleAssistant, types.RoleTool, types.RoleAssistant,
	}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("message %d role = %s, want %s", i, msgs[i].Role, role)
		}
	}
	if msgs[2].Text() != "Checking status." || len(msgs[2].ToolCalls) != 1 {
		t.Errorf("assistant tool turn = %+v", msgs[2])
	}
	if msgs[2].ToolCalls[0].Function.Name != "get_git_status" {
		t.Errorf("aggregated call = %+v", msgs[2].ToolCalls[0])
	}
	if msgs[3].ToolCallID != "call_1" || msgs[3].Name != "get_git_status" || msgs[3].Text() != "M main.go" {
		t.Errorf("tool message = %+v", msgs[3])
	}
	if msgs[4].Text() != "Done" {
		t.Errorf("final assistant = %+v", msgs[4])
	}
}

func syncToolCallThenDone() http.Handler {
	var hits int
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			fmt.Fprint(w, `{
				"choices": [{"message": {"content": null, "tool_calls": [
					{"id": "call_7", "type": "function",
					 "function": {"name": "get_git_status", "arguments": "{}"}}
				]}, "finish_reason": "tool_calls"}]
			}`)
			return
		}
		fmt.Fprint(w, `{"choices": [{"message": {"content": "Done"}, "finish_reason": "stop"}]}`)
	})
}

func TestRunDeniedTool(t *testing.T) {
	var executed []string
	engine := newTestEngine(t, syncToolCallThenDone(), false, Options{
		Registry: echoRegistry(&executed),
		Confirm:  func(name, args string) bool { return false },
	})

	out, err := engine.Run(context.Background(), "what changed?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "Done" {
		t.Errorf("output = %q", out)
	}
	if len(executed) != 0 {
		t.Fatal("denied tool must never execute")
	}

	var toolMsgs []types.Message
	for _, m := range engine.Messages() {
		if m.Role == types.RoleTool {
			toolMsgs = append(toolMsgs, m)
		}
	}
	if len(toolMsgs) != 1 {
		t.Fatalf("tool messages = %d, want 1", len(toolMsgs))
	}
	if toolMsgs[0].Text() != "Tool execution was denied by the user." {
		t.Errorf("denial result = %q", toolMsgs[0].Text())
	}
	if toolMsgs[0].ToolCallID != "call_7" {
		t.Errorf("denial must keep the call id, got %q", toolMsgs[0].ToolCallID)
	}
}

func TestRunSafetyLimit(t *testing.T) {
	var hits int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprintf(w, `{
			"choices": [{"message": {"content": null, "tool_calls": [
				{"id": "call_%d", "type": "function",
				 "function": {"name": "get_git_status", "arguments": "{}"}}
			]}, "finish_reason": "tool_calls"}]
		}`, hits)
	})

	var executed []string
	engine := newTestEngine(t, handler, false, Options{Registry: echoRegistry(&executed)})

	out, err := engine.Run(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out, "Safety Limit reached (10 tool iterations)") {
		t.Errorf("output must carry the safety warning, got %q", out)
	}
	if hits != 10 {
		t.Errorf("model turns = %d, want exactly 10", hits)
	}
	if len(executed) != 10 {
		t.Errorf("tool executions = %d, want 10", len(executed))
	}
}

func TestClearHistory(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": [{"message": {"content": "hi"}, "finish_reason": "stop"}]}`)
	})
	engine := newTestEngine(t, handler, false, Options{})

	if _, err := engine.Run(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	if len(engine.Messages()) != 3 {
		t.Fatalf("history = %d messages, want 3", len(engine.Messages()))
	}

	engine.ClearHistory()
	msgs := engine.Messages()
	if len(msgs) != 1 || msgs[0].Role != types.RoleSystem {
		t.Fatalf("clear must keep only the system message, got %+v", msgs)
	}
}

func TestRunStreamErrorEvent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	engine := newTestEngine(t, handler, false, Options{})

	var errEvent *types.Event
	for ev := range engine.RunStream(context.Background(), "hello") {
		if ev.Type == types.EventError {
			e := ev
			errEvent = &e
		}
	}
	if errEvent == nil || errEvent.Err == nil {
		t.Fatal("expected a terminal error event")
	}
}
