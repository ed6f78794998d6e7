package relay

import (
	"context"
	"fmt"
	"sync"
)

// mockFixed always returns the same response.
type mockFixed struct {
	response string
}

// NewMockProvider creates a provider that always returns response.
func NewMockProvider(response string) Provider {
	return &mockFixed{response: response}
}

func (m *mockFixed) Name() string { return "mock" }

func (m *mockFixed) Call(ctx context.Context, _ []Message, _ float32) (*ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ProviderResponse{Content: m.response}, nil
}

// mockScripted returns queued responses in order, one per call.
type mockScripted struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

// NewScriptedProvider creates a provider that returns each response in
// sequence. Calls beyond the script fail, which catches pipelines making
// more provider calls than a test expects.
func NewScriptedProvider(responses ...string) *mockScripted {
	return &mockScripted{responses: responses}
}

func (m *mockScripted) Name() string { return "scripted-mock" }

func (m *mockScripted) Call(ctx context.Context, _ []Message, _ float32) (*ProviderResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("scripted provider exhausted after %d calls", len(m.responses))
	}
	resp := m.responses[m.calls]
	m.calls++
	return &ProviderResponse{Content: resp}, nil
}

// Calls returns how many times the provider has been invoked.
func (m *mockScripted) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCallback delegates response generation to a function.
type mockCallback struct {
	callback func(ctx context.Context, messages []Message, temperature float32) (string, error)
}

// NewCallbackProvider creates a provider that generates responses through
// callback. Tests use it to inspect the exact messages a stage sends.
func NewCallbackProvider(callback func(ctx context.Context, messages []Message, temperature float32) (string, error)) Provider {
	return &mockCallback{callback: callback}
}

func (m *mockCallback) Name() string { return "callback-mock" }

func (m *mockCallback) Call(ctx context.Context, messages []Message, temperature float32) (*ProviderResponse, error) {
	content, err := m.callback(ctx, messages, temperature)
	if err != nil {
		return nil, err
	}
	return &ProviderResponse{Content: content}, nil
}

// mockFailing always fails with the given error.
type mockFailing struct {
	err error
}

// NewFailingProvider creates a provider whose every call fails with err.
func NewFailingProvider(err error) Provider {
	return &mockFailing{err: err}
}

func (m *mockFailing) Name() string { return "failing-mock" }

func (m *mockFailing) Call(context.Context, []Message, float32) (*ProviderResponse, error) {
	return nil, m.err
}
