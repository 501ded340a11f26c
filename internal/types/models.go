// Package types defines shared data structures for the drona assistant.
package types

import "encoding/json"

// Message roles as used by OpenAI-compatible chat-completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn in a conversation. Content is a pointer because an
// assistant turn that only requests tools carries a JSON null content.
type Message struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: &content}
}

// UserMessage builds a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: &content}
}

// AssistantMessage builds an assistant-role message with plain content.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: &content}
}

// AssistantToolCallMessage builds an assistant-role message that requests
// tools. Content may be empty, in which case it stays a JSON null.
func AssistantToolCallMessage(content string, calls []ToolCall) Message {
	msg := Message{Role: RoleAssistant, ToolCalls: calls}
	if content != "" {
		msg.Content = &content
	}
	return msg
}

// ToolMessage builds a tool-role message carrying the result of a tool call.
func ToolMessage(toolCallID, name, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    &result,
		ToolCallID: toolCallID,
		Name:       name,
	}
}

// Text returns the message content, or "" for null content.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// ToolCall is a structured request from the model to invoke a named tool.
// Function.Arguments stays a raw JSON string until dispatch time.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction identifies the tool and carries its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition is the provider-facing description of a registered tool.
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef holds the callable surface exposed to the model.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Schema is a JSON-schema object describing tool parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// Property describes a single tool parameter.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ParsedChunk is the normalized form of one provider payload, streaming or
// not. ToolCalls holds raw per-chunk fragments, not yet assembled.
type ParsedChunk struct {
	Content          string
	ReasoningContent string
	ToolCalls        []ToolCallDelta
	IsComplete       bool
}

// ToolCallDelta is one tool-call fragment from a streaming chunk. The
// function name and arguments are deltas to append, keyed by Index within
// one model turn.
type ToolCallDelta struct {
	Index    int              `json:"index"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFragment `json:"function"`
}

// ToolCallFragment carries partial name/arguments text.
type ToolCallFragment struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Usage reports token counts from a provider response. Providers disagree on
// field names, so both conventions are decoded.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
}

// Input returns the prompt-side token count under either naming convention.
func (u Usage) Input() int {
	if u.PromptTokens > 0 {
		return u.PromptTokens
	}
	return u.InputTokens
}

// Output returns the completion-side token count under either naming convention.
func (u Usage) Output() int {
	if u.CompletionTokens > 0 {
		return u.CompletionTokens
	}
	return u.OutputTokens
}

// EventType identifies the kind of stream event emitted by the agent engine.
type EventType int

const (
	// EventToken carries one content delta.
	EventToken EventType = iota
	// EventToolCall announces a tool invocation before it executes.
	EventToolCall
	// EventWarning carries visible warning text, e.g. the safety-limit notice.
	EventWarning
	// EventError carries a fatal error; it is always the last event.
	EventError
)

// String returns a human-readable event type name.
func (t EventType) String() string {
	names := [...]string{"token", "tool_call", "warning", "error"}
	if int(t) < len(names) {
		return names[t]
	}
	return "unknown"
}

// Event is one unit of the agent's output stream.
type Event struct {
	Type     EventType
	RunID    string
	Token    string
	ToolName string
	ToolArgs string
	Err      error
}

// MarshalArgs renders a value as a compact JSON arguments string.
func MarshalArgs(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
