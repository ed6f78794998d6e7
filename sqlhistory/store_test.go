package sqlhistory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/relay"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreAppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", relay.Turn{
		Role: relay.RoleUser, Content: "hello", Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, store.Append(ctx, "s1", relay.Turn{
		Role: relay.RoleAssistant, Content: "hi there", Timestamp: time.Now().UTC(),
	}))

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, relay.RoleUser, turns[0].Role)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, relay.RoleAssistant, turns[1].Role)
}

func TestStoreUnknownSessionIsEmpty(t *testing.T) {
	store := newTestStore(t)

	turns, err := store.Recent(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}

func TestStoreWindowKeepsNewestTurns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Append(ctx, "s1", relay.Turn{
			Role:      relay.RoleUser,
			Content:   fmt.Sprintf("turn-%02d", i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	turns, err := store.Recent(ctx, "s1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 6)
	assert.Equal(t, "turn-14", turns[0].Content)
	assert.Equal(t, "turn-19", turns[5].Content)
}

func TestStoreOrderSurvivesEqualTimestamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Same timestamp for every turn; insertion order must still hold.
	stamp := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "s1", relay.Turn{
			Role: relay.RoleUser, Content: fmt.Sprintf("%d", i), Timestamp: stamp,
		}))
	}

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 5)
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("%d", i), turn.Content)
	}
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "alice", relay.Turn{Role: relay.RoleUser, Content: "a", Timestamp: time.Now().UTC()}))
	require.NoError(t, store.Append(ctx, "bob", relay.Turn{Role: relay.RoleUser, Content: "b", Timestamp: time.Now().UTC()}))

	turns, err := store.Recent(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "b", turns[0].Content)
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", relay.Turn{Role: relay.RoleUser, Content: "x", Timestamp: time.Now().UTC()}))
	require.NoError(t, store.Append(ctx, "s2", relay.Turn{Role: relay.RoleUser, Content: "y", Timestamp: time.Now().UTC()}))
	require.NoError(t, store.Clear(ctx, "s1"))

	turns, err := store.Recent(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Other sessions untouched.
	turns, err = store.Recent(ctx, "s2", 10)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
