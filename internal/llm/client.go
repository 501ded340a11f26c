// Package llm talks to OpenAI-compatible chat-completion endpoints over
// plain HTTP, in both streaming (SSE) and non-streaming modes.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/types"
	"github.com/psarda/drona/internal/usage"
)

const doneSentinel = "[DONE]"

// initialBackoff is the first retry delay; it doubles on every attempt.
const initialBackoff = 2 * time.Second

// usageCapableModels lists model-name substrings whose endpoints accept
// stream_options.include_usage. Sending it to other backends is a 400.
var usageCapableModels = []string{"gpt-4o", "gpt-4-turbo", "o1", "o3"}

// HTTPError is a non-retryable response status from the provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("llm API returned HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("llm API returned HTTP %d", e.StatusCode)
}

// Client issues chat-completion requests for one configured agent.
// Rate limits and transport failures are retried with exponential
// backoff; token usage is recorded on the shared tracker.
type Client struct {
	agent    config.AgentConfig
	provider config.ProviderConfig
	retries  int
	debug    bool

	tracker *usage.Tracker
	logger  *zap.Logger

	// syncHTTP has a request timeout; streamHTTP does not, because a
	// long generation can legitimately outlive any fixed deadline.
	syncHTTP   *http.Client
	streamHTTP *http.Client

	sleep func(time.Duration)
}

// NewClient resolves the agent's provider settings from cfg and builds a
// ready-to-use client.
func NewClient(cfg *config.Manager, agentName string, tracker *usage.Tracker, logger *zap.Logger) *Client {
	agent := cfg.AgentConfig(agentName)
	provider := cfg.ProviderConfig(agent.Provider)
	timeout := time.Duration(cfg.GetInt("core.timeout_seconds", config.DefaultTimeoutSeconds)) * time.Second

	transport := http.DefaultTransport
	if !cfg.GetBool("core.verify_ssl", true) {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("TLS certificate verification disabled", zap.String("agent", agentName))
	}

	return &Client{
		agent:      agent,
		provider:   provider,
		retries:    cfg.GetInt("core.llm_retries", config.DefaultRetries),
		debug:      cfg.GetBool("core.debug", false),
		tracker:    tracker,
		logger:     logger,
		syncHTTP:   &http.Client{Transport: transport, Timeout: timeout},
		streamHTTP: &http.Client{Transport: transport},
		sleep:      time.Sleep,
	}
}

// Agent returns the resolved agent configuration backing this client.
func (c *Client) Agent() config.AgentConfig { return c.agent }

// Parser returns a response parser matching this agent's model class.
func (c *Client) Parser() *Parser { return NewParser(c.agent.ReasoningModel) }

// CallSync performs one non-streaming chat completion.
func (c *Client) CallSync(ctx context.Context, messages []types.Message, tools []types.ToolDefinition) (*ChatResponse, error) {
	body, err := json.Marshal(c.buildRequest(messages, tools, false))
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, c.syncHTTP, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chat response: %w", err)
	}
	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}

	if parsed.Usage != nil {
		c.tracker.Record(time.Since(start), *parsed.Usage)
	} else {
		c.tracker.Record(time.Since(start), types.Usage{})
	}
	return &parsed, nil
}

// CallStreaming performs one streaming chat completion. Decoded chunks
// arrive on the returned channel, which closes when the stream ends or
// ctx is cancelled. The response body is closed on every exit path.
func (c *Client) CallStreaming(ctx context.Context, messages []types.Message, tools []types.ToolDefinition) (<-chan StreamChunk, error) {
	body, err := json.Marshal(c.buildRequest(messages, tools, true))
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	start := time.Now()
	resp, err := c.post(ctx, c.streamHTTP, body)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		// Providers report cumulative usage per chunk, so later values
		// replace earlier ones and the final state is recorded once.
		var last types.Usage

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == doneSentinel {
				break
			}
			var chunk StreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				c.logger.Warn("skipping malformed stream chunk", zap.Error(err))
				continue
			}
			if chunk.Usage != nil {
				last = *chunk.Usage
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				c.tracker.Record(time.Since(start), last)
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.logger.Warn("stream ended early", zap.Error(err))
		}
		c.tracker.Record(time.Since(start), last)
	}()
	return out, nil
}

func (c *Client) buildRequest(messages []types.Message, tools []types.ToolDefinition, stream bool) chatRequest {
	req := chatRequest{
		Model:       c.agent.Model,
		Messages:    messages,
		Temperature: c.agent.Temperature,
		Stream:      stream,
	}
	if stream && supportsUsageReporting(c.agent.Model) {
		req.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	if len(tools) > 0 {
		req.Tools = tools
	}
	return req
}

func supportsUsageReporting(model string) bool {
	for _, marker := range usageCapableModels {
		if strings.Contains(model, marker) {
			return true
		}
	}
	return false
}

// post sends the request, retrying transport errors and non-2xx statuses
// with doubling backoff. It returns a response with an open body on success.
func (c *Client) post(ctx context.Context, hc *http.Client, body []byte) (*http.Response, error) {
	url := strings.TrimRight(c.provider.BaseURL, "/") + "/chat/completions"
	if c.debug {
		c.logger.Debug("llm request",
			zap.String("url", url),
			zap.ByteString("body", body))
	}

	var lastErr error
	delay := initialBackoff
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("building chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.provider.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.provider.APIKey)
		}

		resp, err := hc.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			lastErr = &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		default:
			return resp, nil
		}

		if attempt >= c.retries {
			return nil, fmt.Errorf("llm request failed after %d attempts: %w", attempt+1, lastErr)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("retrying llm request",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(lastErr))
		c.sleep(delay)
		delay *= 2
	}
}
