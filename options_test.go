package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	provider := NewCallbackProvider(func(_ context.Context, _ []Message, _ float32) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	})
	invoker := NewInvoker(provider, DefaultTemperatureDeterministic)

	stage := NewPromptStage("flaky", NewTemplate("{input}"), invoker, "output",
		WithRetry(3))

	out, err := stage.Process(context.Background(), Record{"input": "x"})
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if out["output"] != "recovered" {
		t.Errorf("unexpected output: %v", out["output"])
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetryExhausted(t *testing.T) {
	provider := NewFailingProvider(errors.New("permanent"))
	invoker := NewInvoker(provider, DefaultTemperatureDeterministic)

	stage := NewPromptStage("doomed", NewTemplate("{input}"), invoker, "output",
		WithRetry(2))

	_, err := stage.Process(context.Background(), Record{"input": "x"})
	if err == nil {
		t.Fatal("expected exhausted retries to fail")
	}
}

func TestWithTimeoutCancelsSlowCall(t *testing.T) {
	provider := NewCallbackProvider(func(ctx context.Context, _ []Message, _ float32) (string, error) {
		select {
		case <-time.After(5 * time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
	invoker := NewInvoker(provider, DefaultTemperatureDeterministic)

	stage := NewPromptStage("slow", NewTemplate("{input}"), invoker, "output",
		WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := stage.Process(context.Background(), Record{"input": "x"})
	if err == nil {
		t.Fatal("expected timeout")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timeout did not bound the call: %v", elapsed)
	}
}

func TestWithFallbackRunsOnPrimaryFailure(t *testing.T) {
	primary := NewPromptStage("primary",
		NewTemplate("{input}"),
		NewInvoker(NewFailingProvider(errors.New("down")), DefaultTemperatureDeterministic),
		"output")
	fallback := NewStaticStage("canned", "output", "canned answer")

	stage := applyOptions(primary, []Option{WithFallback(fallback)})
	out, err := stage.Process(context.Background(), Record{"input": "x"})
	if err != nil {
		t.Fatalf("fallback should absorb the failure: %v", err)
	}
	if out["output"] != "canned answer" {
		t.Errorf("unexpected output: %v", out["output"])
	}
}

func TestOptionsCompose(t *testing.T) {
	provider := NewMockProvider("ok")
	invoker := NewInvoker(provider, DefaultTemperatureDeterministic)

	stage := NewPromptStage("wrapped", NewTemplate("{input}"), invoker, "output",
		WithTimeout(time.Second),
		WithRetry(2))

	out, err := stage.Process(context.Background(), Record{"input": "x"})
	if err != nil {
		t.Fatalf("composed options broke a healthy stage: %v", err)
	}
	if out["output"] != "ok" {
		t.Errorf("unexpected output: %v", out["output"])
	}
}
