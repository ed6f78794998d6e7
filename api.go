// Package relay composes multi-stage LLM pipelines with shared conversational state.
//
// A pipeline threads a Record (a named-field value) through an ordered set of
// stages. Each stage reads the fields it needs, performs one unit of work
// (usually a prompt render plus a model call), and returns the record with one
// new field added. Stages compose sequentially with Chain, concurrently with
// FanOut, and conditionally with Router. Conversational stages read and write
// turn history through a HistoryStore keyed by session id.
//
// Basic usage:
//
//	provider := openai.New(openai.Config{APIKey: key, Model: "gpt-4"})
//	invoker := relay.NewInvoker(provider, relay.DefaultTemperatureDeterministic)
//	detect := relay.NewPromptStage("detect-language",
//	    relay.NewTemplate("Name the language of this message in one word: {orig_msg}"),
//	    invoker, "orig_lang")
//	out, err := detect.Process(ctx, relay.Record{"orig_msg": "Hola"})
//
// All stages honor context cancellation, and reliability behavior (retry,
// timeout, circuit breaking) is layered on with Options.
package relay

import "context"

// Provider defines the interface for LLM providers.
// Providers accept conversation messages and return responses with usage stats.
// Providers are responsible for handling prompt caching internally.
type Provider interface {
	// Call sends messages to the LLM and returns the response with usage stats.
	// Messages must be in chronological order (oldest first).
	Call(ctx context.Context, messages []Message, temperature float32) (*ProviderResponse, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic")
	Name() string
}

// Validator defines the interface for structured response validation.
// Structured stage output types must implement this so that malformed model
// output is rejected at the boundary instead of leaking into records.
type Validator interface {
	Validate() error
}

// TokenUsage contains token counts from a provider response.
type TokenUsage struct {
	Prompt     int // Tokens used by the prompt/messages
	Completion int // Tokens used by the completion/response
	Total      int // Total tokens used
}

// ProviderResponse contains the response from an LLM provider.
type ProviderResponse struct {
	Content string     // The text response content
	Usage   TokenUsage // Token usage statistics
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string // RoleUser, RoleAssistant, or RoleSystem
	Content string // The message content
}

// Role constants for message types.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Default temperature constants for common stage kinds.
// Lower values produce more deterministic outputs, higher values allow more
// varied phrasing.
const (
	// TemperatureUnset indicates that no temperature has been explicitly set.
	// A zero-value float32 is also treated as unset for ergonomic struct
	// initialization.
	TemperatureUnset float32 = -1

	// TemperatureZero provides an explicitly near-zero temperature for
	// maximum determinism. Use this instead of 0.0 since zero means "unset".
	TemperatureZero float32 = 0.0001

	// DefaultTemperatureDeterministic suits classification, translation, and
	// extraction stages where outputs feed later stages verbatim.
	DefaultTemperatureDeterministic float32 = 0.1

	// DefaultTemperatureAnalytical suits analysis and routing classifier
	// stages that need consistency with some flexibility.
	DefaultTemperatureAnalytical float32 = 0.2

	// DefaultTemperatureCreative suits free-form generation stages such as
	// report writing or customer responses.
	DefaultTemperatureCreative float32 = 0.3
)
