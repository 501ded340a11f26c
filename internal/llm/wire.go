package llm

import "github.com/psarda/drona/internal/types"

// chatRequest is the JSON body posted to <base_url>/chat/completions.
type chatRequest struct {
	Model         string                 `json:"model"`
	Messages      []types.Message        `json:"messages"`
	Temperature   float64                `json:"temperature"`
	Stream        bool                   `json:"stream"`
	StreamOptions *streamOptions         `json:"stream_options,omitempty"`
	Tools         []types.ToolDefinition `json:"tools,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// StreamChunk is one decoded SSE payload from a streaming response.
type StreamChunk struct {
	Choices []StreamChoice `json:"choices"`
	Usage   *types.Usage   `json:"usage,omitempty"`
}

// StreamChoice carries the delta for one choice; only the first is consumed.
type StreamChoice struct {
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental assistant output within one streaming chunk.
type Delta struct {
	Content          string                `json:"content"`
	ReasoningContent string                `json:"reasoning_content"`
	ToolCalls        []types.ToolCallDelta `json:"tool_calls"`
}

// ChatResponse is a complete non-streaming response body.
type ChatResponse struct {
	Choices []ResponseChoice `json:"choices"`
	Usage   *types.Usage     `json:"usage,omitempty"`
}

// ResponseChoice is one complete choice from a non-streaming response.
type ResponseChoice struct {
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage is the assistant message of a non-streaming response.
// Tool calls arrive fully assembled here, unlike the streaming deltas.
type ResponseMessage struct {
	Content          *string          `json:"content"`
	ReasoningContent string           `json:"reasoning_content"`
	ToolCalls        []types.ToolCall `json:"tool_calls"`
}
