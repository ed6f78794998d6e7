package relay

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryHistoryUnknownSessionIsEmpty(t *testing.T) {
	store := NewMemoryHistory()

	turns, err := store.Recent(context.Background(), "never-seen", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("expected empty history, got %d turns", len(turns))
	}
}

func TestMemoryHistoryReadAfterWrite(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()
	id := NewSessionID()

	if err := store.Append(ctx, id, Turn{Role: RoleUser, Content: "hello", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	turns, err := store.Recent(ctx, id, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "hello" {
		t.Errorf("append not visible to immediate read: %+v", turns)
	}
}

func TestMemoryHistoryWindowAndOrder(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()
	id := "windowed"

	for i := 0; i < 30; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if err := store.Append(ctx, id, Turn{Role: role, Content: fmt.Sprintf("turn-%02d", i), Timestamp: time.Now()}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	turns, err := store.Recent(ctx, id, 5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 10 {
		t.Fatalf("expected 2*k=10 turns, got %d", len(turns))
	}
	// Oldest-first within the window: turns 20..29.
	for i, turn := range turns {
		want := fmt.Sprintf("turn-%02d", 20+i)
		if turn.Content != want {
			t.Errorf("turns[%d] = %q, want %q", i, turn.Content, want)
		}
	}
}

func TestMemoryHistorySessionsAreIndependent(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", s)
			for i := 0; i < 50; i++ {
				_ = store.Append(ctx, id, Turn{Role: RoleUser, Content: fmt.Sprintf("%d", i), Timestamp: time.Now()})
			}
		}(s)
	}
	wg.Wait()

	for s := 0; s < 8; s++ {
		id := fmt.Sprintf("session-%d", s)
		if got := store.Len(id); got != 50 {
			t.Errorf("session %s has %d turns, want 50", id, got)
		}
		turns, err := store.Recent(ctx, id, 25)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		for i, turn := range turns {
			if turn.Content != fmt.Sprintf("%d", i) {
				t.Fatalf("session %s reordered: turns[%d] = %q", id, i, turn.Content)
			}
		}
	}
}

func TestMemoryHistoryZeroWindow(t *testing.T) {
	store := NewMemoryHistory()
	ctx := context.Background()
	_ = store.Append(ctx, "s", Turn{Role: RoleUser, Content: "x", Timestamp: time.Now()})

	turns, err := store.Recent(ctx, "s", 0)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("k=0 should return no turns, got %d", len(turns))
	}
}

func TestTurnsToMessages(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	messages := TurnsToMessages(turns)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != RoleUser || messages[1].Content != "hello" {
		t.Errorf("unexpected conversion: %+v", messages)
	}
}
