package relay

import (
	"context"
	"errors"
	"testing"
)

func TestScriptedProviderExhaustion(t *testing.T) {
	provider := NewScriptedProvider("one", "two")
	ctx := context.Background()

	for _, want := range []string{"one", "two"} {
		resp, err := provider.Call(ctx, nil, 0)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		if resp.Content != want {
			t.Errorf("expected %q, got %q", want, resp.Content)
		}
	}

	if _, err := provider.Call(ctx, nil, 0); err == nil {
		t.Error("call beyond the script should fail")
	}
	if provider.Calls() != 3 {
		t.Errorf("expected 3 recorded calls, got %d", provider.Calls())
	}
}

func TestMockProviderRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := NewMockProvider("never")
	if _, err := provider.Call(ctx, nil, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFailingProviderAlwaysFails(t *testing.T) {
	boom := errors.New("boom")
	provider := NewFailingProvider(boom)

	if _, err := provider.Call(context.Background(), nil, 0); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
