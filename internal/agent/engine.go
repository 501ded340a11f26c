// Package agent orchestrates LLM conversations with tool support.
package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/llm"
	"github.com/psarda/drona/internal/tools"
	"github.com/psarda/drona/internal/types"
	"github.com/psarda/drona/internal/usage"
)

// maxIterations bounds the number of model turns per user input so a
// tool-calling loop cannot run away.
const maxIterations = 10

// safetyLimitWarning is emitted as visible output when the bound hits.
const safetyLimitWarning = "⚠️ Safety Limit reached (10 tool iterations)."

// deniedResult is recorded as the tool result when the user refuses a
// tool execution.
const deniedResult = "Tool execution was denied by the user."

// ConfirmFunc decides whether a tool call may execute. It runs on the
// engine's producer goroutine, so implementations may block on user
// input.
type ConfirmFunc func(toolName, arguments string) bool

// Options configures an Engine beyond what the agent config provides.
type Options struct {
	// SystemPrompt overrides the configured system prompt.
	SystemPrompt string
	// Registry supplies the callable tools; nil disables tool use.
	Registry *tools.Registry
	// Confirm gates tool execution; nil allows everything.
	Confirm ConfirmFunc
	// Tracker accumulates token usage; nil creates a private one.
	Tracker *usage.Tracker
	// Logger defaults to a nop logger.
	Logger *zap.Logger
}

// Engine drives the conversation loop for one named agent: it sends
// history to the model, streams content back, executes requested tools
// and feeds results into the next turn.
type Engine struct {
	agentName string
	client    *llm.Client
	parser    *llm.Parser
	registry  *tools.Registry
	confirm   ConfirmFunc
	logger    *zap.Logger
	streaming bool

	systemPrompt string
	messages     []types.Message
}

// New builds an engine for the named agent configuration.
func New(cfg *config.Manager, agentName string, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	registry := opts.Registry
	if registry == nil {
		registry = tools.NewRegistry()
	}

	client := llm.NewClient(cfg, agentName, tracker, logger)
	prompt := opts.SystemPrompt
	if prompt == "" {
		prompt = client.Agent().SystemPrompt
	}

	e := &Engine{
		agentName:    agentName,
		client:       client,
		parser:       client.Parser(),
		registry:     registry,
		confirm:      opts.Confirm,
		logger:       logger,
		streaming:    client.Agent().Streaming(),
		systemPrompt: prompt,
	}
	if prompt != "" {
		e.messages = append(e.messages, types.SystemMessage(prompt))
	}
	return e
}

// Messages returns the conversation history.
func (e *Engine) Messages() []types.Message { return e.messages }

// ClearHistory resets the conversation to the system message only.
func (e *Engine) ClearHistory() {
	e.messages = e.messages[:0]
	if e.systemPrompt != "" {
		e.messages = append(e.messages, types.SystemMessage(e.systemPrompt))
	}
}

// Run sends one user input through the loop and returns the full
// response text, ignoring structured tool-call events.
func (e *Engine) Run(ctx context.Context, userInput string) (string, error) {
	var out strings.Builder
	for ev := range e.RunStream(ctx, userInput) {
		switch ev.Type {
		case types.EventToken, types.EventWarning:
			out.WriteString(ev.Token)
		case types.EventError:
			return out.String(), ev.Err
		}
	}
	return out.String(), nil
}

// RunStream sends one user input through the loop and returns a channel
// of events: content tokens as they arrive, tool-call announcements,
// the safety-limit warning, and at most one terminal error. The channel
// closes when the turn completes or ctx is cancelled.
func (e *Engine) RunStream(ctx context.Context, userInput string) <-chan types.Event {
	events := make(chan types.Event)

	go func() {
		defer close(events)
		runID := uuid.NewString()
		e.messages = append(e.messages, types.UserMessage(userInput))

		emit := func(ev types.Event) bool {
			ev.RunID = runID
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for iteration := 1; iteration <= maxIterations; iteration++ {
			e.logger.Debug("agent iteration",
				zap.String("agent", e.agentName),
				zap.String("run_id", runID),
				zap.Int("iteration", iteration))

			var keepGoing bool
			var err error
			if e.streaming {
				keepGoing, err = e.streamingIteration(ctx, emit)
			} else {
				keepGoing, err = e.syncIteration(ctx, emit)
			}
			if err != nil {
				emit(types.Event{Type: types.EventError, Err: err})
				return
			}
			if !keepGoing {
				return
			}
		}
		emit(types.Event{Type: types.EventWarning, Token: safetyLimitWarning})
	}()
	return events
}

// definitions returns the provider-facing tool definitions, or nil when
// no tools are registered so the request omits the field entirely.
func (e *Engine) definitions() []types.ToolDefinition {
	defs := e.registry.Definitions()
	if len(defs) == 0 {
		return nil
	}
	return defs
}

// streamingIteration runs one model turn over the streaming transport.
// It reports whether the loop should continue with another turn.
func (e *Engine) streamingIteration(ctx context.Context, emit func(types.Event) bool) (bool, error) {
	chunks, err := e.client.CallStreaming(ctx, e.messages, e.definitions())
	if err != nil {
		return false, err
	}

	agg := llm.NewToolCallAggregator()
	var content strings.Builder
	for chunk := range chunks {
		parsed := e.parser.ParseStreamChunk(chunk)
		if parsed.Content != "" {
			content.WriteString(parsed.Content)
			if !emit(types.Event{Type: types.EventToken, Token: parsed.Content}) {
				return false, ctx.Err()
			}
		}
		if len(parsed.ToolCalls) > 0 {
			agg.Add(parsed.ToolCalls)
		}
	}

	text := content.String()
	if agg.HasCalls() {
		e.executeToolCalls(ctx, emit, agg.Calls(), text)
		return true, nil
	}
	if text != "" {
		e.messages = append(e.messages, types.AssistantMessage(text))
	}
	return false, nil
}

// syncIteration runs one model turn over the non-streaming transport,
// emitting the content as a single token event.
func (e *Engine) syncIteration(ctx context.Context, emit func(types.Event) bool) (bool, error) {
	resp, err := e.client.CallSync(ctx, e.messages, e.definitions())
	if err != nil {
		return false, err
	}

	parsed := e.parser.ParseSyncResponse(resp)
	if parsed.Content != "" {
		if !emit(types.Event{Type: types.EventToken, Token: parsed.Content}) {
			return false, ctx.Err()
		}
	}

	if len(parsed.ToolCalls) > 0 {
		agg := llm.NewToolCallAggregator()
		agg.Add(parsed.ToolCalls)
		e.executeToolCalls(ctx, emit, agg.Calls(), parsed.Content)
		return true, nil
	}
	if parsed.Content != "" {
		e.messages = append(e.messages, types.AssistantMessage(parsed.Content))
	}
	return false, nil
}

// executeToolCalls records the assistant turn, then runs each call
// through the confirmation gate and the registry. Every call leaves a
// tool-role message in history, whether it executed, failed or was
// denied.
func (e *Engine) executeToolCalls(ctx context.Context, emit func(types.Event) bool, calls []types.ToolCall, content string) {
	e.messages = append(e.messages, types.AssistantToolCallMessage(content, calls))

	for _, call := range calls {
		name := call.Function.Name
		args := call.Function.Arguments

		if !emit(types.Event{Type: types.EventToolCall, ToolName: name, ToolArgs: args}) {
			return
		}

		if e.confirm != nil && !e.confirm(name, args) {
			e.logger.Info("tool execution denied",
				zap.String("agent", e.agentName),
				zap.String("tool", name))
			e.messages = append(e.messages, types.ToolMessage(call.ID, name, deniedResult))
			continue
		}

		result := e.registry.Call(ctx, name, args)
		e.messages = append(e.messages, types.ToolMessage(call.ID, name, result))
	}
}
