package relay

import (
	"context"
	"errors"
	"fmt"
)

// MissingFieldError reports a template or stage referencing a record field
// that is absent. This is a programmer error and is never retried.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record missing required field %q", e.Field)
}

// ProviderError reports a failed call to a hosted model or retrieval
// service. It is surfaced to the caller as-is; retrying is caller policy.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Timeout reports whether the underlying failure was a deadline expiry.
func (e *ProviderError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// SchemaParseError reports model output that failed structured-schema
// validation. Raw carries the offending output; no partially-parsed data is
// ever returned alongside it.
type SchemaParseError struct {
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("response failed schema validation: %v", e.Err)
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

// RoutingError reports a router whose classifier label matched no route
// while no default stage was configured.
type RoutingError struct {
	Label string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no route matched classifier label %q and no default stage configured", e.Label)
}

// ErrRoundLimit is returned by a Planner whose question/answer exchange
// exceeded the configured maximum number of rounds.
var ErrRoundLimit = errors.New("dialogue round limit exceeded")

// ErrCompleted is returned when input is fed to a Planner that has already
// produced its terminal plan.
var ErrCompleted = errors.New("dialogue already completed")

// ErrNotStarted is returned when a Planner receives an answer before Start.
var ErrNotStarted = errors.New("dialogue not started")

// IsTimeout reports whether err represents a deadline expiry anywhere in
// its chain, including timeouts injected by WithTimeout. No partial record
// mutation is committed when a stage times out.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
