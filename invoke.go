package relay

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// Invoker wraps a single provider with a fixed sampling temperature.
// The model identifier is bound inside the provider (see the openai and
// anthropic packages); the invoker owns the per-call mechanics: message
// assembly, hook emission, and error classification.
//
// A provider call blocks until the provider responds or ctx expires.
// Deadline expiry surfaces as a ProviderError whose Timeout method reports
// true; no local retry is performed.
type Invoker struct {
	provider    Provider
	temperature float32
}

// NewInvoker creates an invoker bound to provider. A zero or unset
// temperature falls back to DefaultTemperatureDeterministic.
func NewInvoker(provider Provider, temperature float32) *Invoker {
	if temperature == TemperatureUnset || temperature == 0 {
		temperature = DefaultTemperatureDeterministic
	}
	return &Invoker{provider: provider, temperature: temperature}
}

// Provider returns the wrapped provider.
func (inv *Invoker) Provider() Provider { return inv.provider }

// Temperature returns the fixed sampling temperature.
func (inv *Invoker) Temperature() float32 { return inv.temperature }

// Invoke sends the rendered prompt, preceded by any prior conversation
// history, to the provider and returns the generated text.
func (inv *Invoker) Invoke(ctx context.Context, history []Message, prompt string) (string, error) {
	requestID := uuid.New().String()

	messages := make([]Message, len(history)+1)
	copy(messages, history)
	messages[len(messages)-1] = Message{Role: RoleUser, Content: prompt}

	capitan.Info(ctx, ProviderCallStarted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(inv.provider.Name()),
		TemperatureKey.Field(float64(inv.temperature)),
		PromptKey.Field(prompt),
	)

	resp, err := inv.provider.Call(ctx, messages, inv.temperature)
	if err != nil {
		perr := &ProviderError{Provider: inv.provider.Name(), Err: err}
		capitan.Error(ctx, ProviderCallFailed,
			RequestIDKey.Field(requestID),
			ProviderKey.Field(inv.provider.Name()),
			ErrorKey.Field(err.Error()),
		)
		return "", perr
	}

	capitan.Info(ctx, ProviderCallCompleted,
		RequestIDKey.Field(requestID),
		ProviderKey.Field(inv.provider.Name()),
		ResponseKey.Field(resp.Content),
		PromptTokensKey.Field(resp.Usage.Prompt),
		CompletionTokensKey.Field(resp.Usage.Completion),
		TotalTokensKey.Field(resp.Usage.Total),
	)

	return resp.Content, nil
}

// InvokeStructured sends the rendered prompt augmented with T's JSON schema
// and parses the response into T. Output that fails to parse or validate is
// rejected with a SchemaParseError; partially-parsed data is never returned.
func InvokeStructured[T Validator](ctx context.Context, inv *Invoker, history []Message, prompt string) (T, error) {
	var result T

	full := prompt + "\n\nReturn a single JSON object matching this schema:\n" + JSONSchema[T]()

	raw, err := inv.Invoke(ctx, history, full)
	if err != nil {
		return result, err
	}

	if parseErr := json.Unmarshal([]byte(extractJSON(raw)), &result); parseErr != nil {
		return result, &SchemaParseError{Raw: raw, Err: parseErr}
	}
	if validationErr := result.Validate(); validationErr != nil {
		return result, &SchemaParseError{Raw: raw, Err: validationErr}
	}

	return result, nil
}

// extractJSON trims any prose a model wraps around a JSON object, returning
// the outermost {...} span. Input without braces is returned unchanged so
// the parse error carries the original text.
func extractJSON(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				return s[start : i+1]
			}
		}
	}
	return s
}
