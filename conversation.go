package relay

import (
	"context"
	"strings"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// ConversationConfig configures a conversation stage.
type ConversationConfig struct {
	// Store holds the session turn logs. Required.
	Store HistoryStore

	// SessionField names the record field carrying the session id.
	// Defaults to "session_id".
	SessionField string

	// Window is the number of turn pairs injected as context (2*Window
	// turns). Defaults to 10.
	Window int

	// System is an optional system prompt prepended before the history.
	System string
}

// DefaultWindow is the history window (turn pairs) used when
// ConversationConfig.Window is zero.
const DefaultWindow = 10

// NewConversationStage builds a session-scoped prompt stage. Before the
// provider call, the last Window turn pairs for the record's session are
// injected as messages ahead of the rendered prompt. After a successful
// call the user prompt and assistant response are appended to the session,
// in that order, so they are visible to the next invocation. Nothing is
// appended on failure.
func NewConversationStage(name string, tmpl *Template, inv *Invoker, cfg ConversationConfig, outputField string, opts ...Option) Stage {
	sessionField := cfg.SessionField
	if sessionField == "" {
		sessionField = "session_id"
	}
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}

	stage := pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		sessionID, err := rec.String(sessionField)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		prompt, err := tmpl.Render(rec)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		turns, err := cfg.Store.Recent(ctx, sessionID, window)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		var history []Message
		if cfg.System != "" {
			history = append(history, Message{Role: RoleSystem, Content: cfg.System})
		}
		history = append(history, TurnsToMessages(turns)...)

		out, err := inv.Invoke(ctx, history, prompt)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}
		out = strings.TrimSpace(out)

		// The session is only updated after a successful response so a
		// retried or abandoned call cannot corrupt the log.
		now := time.Now()
		if err := cfg.Store.Append(ctx, sessionID, Turn{Role: RoleUser, Content: prompt, Timestamp: now}); err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}
		if err := cfg.Store.Append(ctx, sessionID, Turn{Role: RoleAssistant, Content: out, Timestamp: now}); err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		capitan.Info(ctx, HistoryAppended,
			StageKey.Field(name),
			SessionIDKey.Field(sessionID),
		)

		return rec.With(outputField, out), nil
	})
	return applyOptions(stage, opts)
}
