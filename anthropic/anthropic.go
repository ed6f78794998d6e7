// Package anthropic implements the relay Provider interface for the
// Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/relaykit/relay"
)

// Provider calls the Anthropic messages endpoint.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// Config holds configuration for the Anthropic provider.
type Config struct {
	APIKey    string
	Model     string        // e.g. "claude-sonnet-4-20250514"
	BaseURL   string        // Optional, defaults to "https://api.anthropic.com"
	MaxTokens int           // Optional, defaults to 4096
	Timeout   time.Duration // Optional, defaults to 30s
}

// New creates a new Anthropic provider.
func New(config Config) *Provider {
	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Provider{
		apiKey:    config.APIKey,
		model:     config.Model,
		baseURL:   config.BaseURL,
		maxTokens: config.MaxTokens,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "anthropic" }

// Call sends messages to Anthropic and returns the response with usage
// stats. System messages are lifted into the top-level system field as the
// API requires.
func (p *Provider) Call(ctx context.Context, messages []relay.Message, temperature float32) (*relay.ProviderResponse, error) {
	startTime := time.Now()

	capitan.Info(ctx, relay.ProviderCallStarted,
		relay.ProviderKey.Field(p.Name()),
		relay.ModelKey.Field(p.model),
	)

	var systemParts []string
	var wireMessages []wireMessage
	for _, msg := range messages {
		if msg.Role == relay.RoleSystem {
			systemParts = append(systemParts, msg.Content)
			continue
		}
		wireMessages = append(wireMessages, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	reqBody := messagesRequest{
		Model:       p.model,
		Messages:    wireMessages,
		MaxTokens:   p.maxTokens,
		Temperature: temperature,
	}
	if len(systemParts) > 0 {
		reqBody.System = strings.Join(systemParts, "\n\n")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.callError(ctx, resp.StatusCode, body, time.Since(startTime))
	}

	var message messagesResponse
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("no text content returned")
	}

	fields := []capitan.Field{
		relay.ProviderKey.Field(p.Name()),
		relay.ModelKey.Field(message.Model),
		relay.PromptTokensKey.Field(message.Usage.InputTokens),
		relay.CompletionTokensKey.Field(message.Usage.OutputTokens),
		relay.TotalTokensKey.Field(message.Usage.InputTokens + message.Usage.OutputTokens),
		relay.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		relay.HTTPStatusCodeKey.Field(resp.StatusCode),
		relay.ResponseIDKey.Field(message.ID),
	}
	if message.StopReason != "" {
		fields = append(fields, relay.ResponseFinishReasonKey.Field(message.StopReason))
	}
	capitan.Info(ctx, relay.ProviderCallCompleted, fields...)

	return &relay.ProviderResponse{
		Content: content.String(),
		Usage: relay.TokenUsage{
			Prompt:     message.Usage.InputTokens,
			Completion: message.Usage.OutputTokens,
			Total:      message.Usage.InputTokens + message.Usage.OutputTokens,
		},
	}, nil
}

// callError decodes an error payload, emits the failure hook, and maps the
// status to a descriptive error.
func (p *Provider) callError(ctx context.Context, status int, body []byte, duration time.Duration) error {
	fields := []capitan.Field{
		relay.ProviderKey.Field(p.Name()),
		relay.ModelKey.Field(p.model),
		relay.HTTPStatusCodeKey.Field(status),
		relay.DurationMsKey.Field(int(duration.Milliseconds())),
	}

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		fields = append(fields,
			relay.ErrorKey.Field(apiErr.Error.Message),
			relay.APIErrorTypeKey.Field(apiErr.Error.Type),
		)
		capitan.Error(ctx, relay.ProviderCallFailed, fields...)

		if status == http.StatusTooManyRequests {
			return fmt.Errorf("rate limit exceeded: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("anthropic error (%d): %s", status, apiErr.Error.Message)
	}

	fields = append(fields, relay.ErrorKey.Field(fmt.Sprintf("status %d", status)))
	capitan.Error(ctx, relay.ProviderCallFailed, fields...)
	return fmt.Errorf("anthropic error: status %d", status)
}

// Wire types for the messages API.

type messagesRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float32       `json:"temperature"`
	System      string        `json:"system,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      wireUsage      `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
