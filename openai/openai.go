// Package openai implements the relay Provider interface for the OpenAI
// chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/zoobzio/capitan"

	"github.com/relaykit/relay"
)

// Provider calls the OpenAI chat completions endpoint.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	jsonMode   bool
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey   string
	Model    string        // e.g. "gpt-4", "gpt-4o-mini"
	BaseURL  string        // Optional, defaults to "https://api.openai.com/v1"
	Timeout  time.Duration // Optional, defaults to 30s
	JSONMode bool          // Force json_object responses for structured stages
}

// New creates a new OpenAI provider.
func New(config Config) *Provider {
	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Provider{
		apiKey:   config.APIKey,
		model:    config.Model,
		baseURL:  config.BaseURL,
		jsonMode: config.JSONMode,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "openai" }

// Call sends messages to OpenAI and returns the response with usage stats.
func (p *Provider) Call(ctx context.Context, messages []relay.Message, temperature float32) (*relay.ProviderResponse, error) {
	startTime := time.Now()

	capitan.Info(ctx, relay.ProviderCallStarted,
		relay.ProviderKey.Field(p.Name()),
		relay.ModelKey.Field(p.model),
	)

	wireMessages := make([]wireMessage, len(messages))
	for i, msg := range messages {
		wireMessages[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}

	reqBody := completionRequest{
		Model:       p.model,
		Messages:    wireMessages,
		Temperature: temperature,
	}
	if p.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

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

	var completion completionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	fields := []capitan.Field{
		relay.ProviderKey.Field(p.Name()),
		relay.ModelKey.Field(completion.Model),
		relay.PromptTokensKey.Field(completion.Usage.PromptTokens),
		relay.CompletionTokensKey.Field(completion.Usage.CompletionTokens),
		relay.TotalTokensKey.Field(completion.Usage.TotalTokens),
		relay.DurationMsKey.Field(int(time.Since(startTime).Milliseconds())),
		relay.HTTPStatusCodeKey.Field(resp.StatusCode),
		relay.ResponseIDKey.Field(completion.ID),
		relay.ResponseCreatedKey.Field(int(completion.Created)),
	}
	if completion.Choices[0].FinishReason != "" {
		fields = append(fields, relay.ResponseFinishReasonKey.Field(completion.Choices[0].FinishReason))
	}
	capitan.Info(ctx, relay.ProviderCallCompleted, fields...)

	return &relay.ProviderResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: relay.TokenUsage{
			Prompt:     completion.Usage.PromptTokens,
			Completion: completion.Usage.CompletionTokens,
			Total:      completion.Usage.TotalTokens,
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
		if apiErr.Error.Code != "" {
			fields = append(fields, relay.APIErrorCodeKey.Field(apiErr.Error.Code))
		}
		capitan.Error(ctx, relay.ProviderCallFailed, fields...)

		if status == http.StatusTooManyRequests {
			return fmt.Errorf("rate limit exceeded: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("openai error (%d): %s", status, apiErr.Error.Message)
	}

	fields = append(fields, relay.ErrorKey.Field(fmt.Sprintf("status %d", status)))
	capitan.Error(ctx, relay.ProviderCallFailed, fields...)
	return fmt.Errorf("openai error: status %d", status)
}

// Wire types for the chat completions API.

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []wireMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	ID      string       `json:"id"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
}

type wireChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}
