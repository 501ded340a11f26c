package llm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/psarda/drona/internal/types"
)

// reasoningArtifacts matches system prompts that some serving stacks
// leak at the start of reasoning_content. Each stack wraps the leak
// differently, so new deployments get handled by appending a pattern
// here. Patterns are anchored to the start of the text: only a leading
// artifact is stripped.
var reasoningArtifacts = []*regexp.Regexp{
	// SGLang-style chat template markers.
	regexp.MustCompile(`(?is)^<\|system\|>.*?<\|/system\|>\s*`),
	// XML-style system blocks.
	regexp.MustCompile(`(?is)^<system>.*?</system>\s*`),
	// Bracket-style system blocks.
	regexp.MustCompile(`(?is)^\[SYSTEM\].*?\[/SYSTEM\]\s*`),
	// Plain-text "System:" preamble up to the first blank line.
	regexp.MustCompile(`(?is)^System:.*?\n\n`),
}

// Parser extracts content, reasoning traces and tool-call fragments
// from wire responses. Reasoning traces are only surfaced for
// reasoning models, scrubbed of leaked prompt artifacts.
type Parser struct {
	reasoningModel bool
}

func NewParser(reasoningModel bool) *Parser {
	return &Parser{reasoningModel: reasoningModel}
}

// ParseStreamChunk flattens one streaming chunk into a ParsedChunk.
// Chunks without choices (usage-only frames) yield an empty result.
func (p *Parser) ParseStreamChunk(chunk StreamChunk) types.ParsedChunk {
	var out types.ParsedChunk
	if len(chunk.Choices) == 0 {
		return out
	}
	choice := chunk.Choices[0]
	out.Content = choice.Delta.Content
	if p.reasoningModel {
		out.ReasoningContent = p.cleanReasoning(choice.Delta.ReasoningContent)
	}
	out.ToolCalls = choice.Delta.ToolCalls
	out.IsComplete = choice.FinishReason != nil && *choice.FinishReason != ""
	return out
}

// ParseSyncResponse flattens a complete response into a ParsedChunk.
// Fully assembled tool calls are re-expressed as fragments so the
// aggregator path is identical for both transport modes.
func (p *Parser) ParseSyncResponse(resp *ChatResponse) types.ParsedChunk {
	var out types.ParsedChunk
	if resp == nil || len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	if choice.Message.Content != nil {
		out.Content = *choice.Message.Content
	}
	if p.reasoningModel {
		out.ReasoningContent = p.cleanReasoning(choice.Message.ReasoningContent)
	}
	for i, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, types.ToolCallDelta{
			Index: i,
			ID:    call.ID,
			Type:  call.Type,
			Function: types.ToolCallFragment{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	out.IsComplete = true
	return out
}

// cleanReasoning strips a leading system-prompt artifact from reasoning
// content. Idempotent: cleaning already-clean text changes nothing.
func (p *Parser) cleanReasoning(content string) string {
	if content == "" {
		return content
	}
	cleaned := content
	for _, pat := range reasoningArtifacts {
		cleaned = pat.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

// ToolCallAggregator assembles streamed tool-call fragments into
// complete calls. Fragments are keyed by index; names and argument
// payloads concatenate across chunks, and an id is only taken from
// fragments that carry one.
type ToolCallAggregator struct {
	pending map[int]*pendingCall
}

type pendingCall struct {
	id   string
	typ  string
	name string
	args string
}

func NewToolCallAggregator() *ToolCallAggregator {
	return &ToolCallAggregator{pending: make(map[int]*pendingCall)}
}

// Add folds one chunk's fragments into the aggregation state.
func (a *ToolCallAggregator) Add(deltas []types.ToolCallDelta) {
	for _, d := range deltas {
		call, ok := a.pending[d.Index]
		if !ok {
			call = &pendingCall{}
			a.pending[d.Index] = call
		}
		if d.ID != "" {
			call.id = d.ID
		}
		if d.Type != "" {
			call.typ = d.Type
		}
		call.name += d.Function.Name
		call.args += d.Function.Arguments
	}
}

// HasCalls reports whether any fragment has been seen this turn.
func (a *ToolCallAggregator) HasCalls() bool {
	return len(a.pending) > 0
}

// Calls returns the assembled tool calls in index order.
func (a *ToolCallAggregator) Calls() []types.ToolCall {
	indexes := make([]int, 0, len(a.pending))
	for i := range a.pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	calls := make([]types.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		p := a.pending[i]
		typ := p.typ
		if typ == "" {
			typ = "function"
		}
		calls = append(calls, types.ToolCall{
			ID:   p.id,
			Type: typ,
			Function: types.ToolCallFunction{
				Name:      p.name,
				Arguments: p.args,
			},
		})
	}
	return calls
}

// Reset clears the aggregation state for the next assistant turn.
func (a *ToolCallAggregator) Reset() {
	a.pending = make(map[int]*pendingCall)
}
