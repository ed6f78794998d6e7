package relay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Turn is one entry in a session's conversation log.
// Turns are append-only and never mutated after append.
type Turn struct {
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	Timestamp time.Time `json:"timestamp" db:"created_at"`
}

// HistoryStore owns per-session ordered turn logs. Sessions are created
// implicitly on first Append; Recent on an unknown session returns an empty
// slice, not an error.
//
// Implementations must serialize Append/Recent for the same session id
// (read-after-write consistency within a session) while letting unrelated
// sessions proceed independently, and must never reorder a session's turns.
type HistoryStore interface {
	// Append adds a turn to the session's log, creating the session if it
	// does not exist yet.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// Recent returns at most the last 2*k turns (k user/assistant pairs),
	// ordered oldest first.
	Recent(ctx context.Context, sessionID string, k int) ([]Turn, error)
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// MemoryHistory is the in-memory HistoryStore backend.
// Safe for concurrent use; each session carries its own lock so sessions
// never contend with one another.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLog
}

type sessionLog struct {
	mu    sync.Mutex
	turns []Turn
}

// NewMemoryHistory creates an empty in-memory history store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string]*sessionLog)}
}

// Append adds a turn to the session, creating it on first reference.
func (h *MemoryHistory) Append(_ context.Context, sessionID string, turn Turn) error {
	log := h.session(sessionID)

	log.mu.Lock()
	defer log.mu.Unlock()
	log.turns = append(log.turns, turn)
	return nil
}

// Recent returns up to the last 2*k turns, oldest first.
func (h *MemoryHistory) Recent(_ context.Context, sessionID string, k int) ([]Turn, error) {
	h.mu.RLock()
	log, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok || k <= 0 {
		return []Turn{}, nil
	}

	log.mu.Lock()
	defer log.mu.Unlock()

	limit := 2 * k
	start := 0
	if len(log.turns) > limit {
		start = len(log.turns) - limit
	}
	out := make([]Turn, len(log.turns)-start)
	copy(out, log.turns[start:])
	return out, nil
}

// Len returns the number of turns stored for the session.
func (h *MemoryHistory) Len(sessionID string) int {
	h.mu.RLock()
	log, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	return len(log.turns)
}

// session returns the session's log, creating it if needed.
func (h *MemoryHistory) session(sessionID string) *sessionLog {
	h.mu.RLock()
	log, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if ok {
		return log
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if log, ok = h.sessions[sessionID]; ok {
		return log
	}
	log = &sessionLog{}
	h.sessions[sessionID] = log
	return log
}

// TurnsToMessages converts stored turns to provider messages in order.
func TurnsToMessages(turns []Turn) []Message {
	messages := make([]Message, len(turns))
	for i, turn := range turns {
		messages[i] = Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}
