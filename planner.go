package relay

import (
	"context"
	"fmt"
	"time"
)

// PlannerResponse is the structured reply the planner model must produce
// on every turn: either the next question to ask or the finished plan.
type PlannerResponse struct {
	IsQuestion  bool   `json:"isQuestion" desc:"true while asking, false when the plan is ready"`
	Question    string `json:"question" desc:"next question for the user, empty when done"`
	ProjectPlan string `json:"projectPlan" desc:"final plan text, empty while asking"`
}

// Validate rejects replies that claim to ask without a question or claim
// completion without a plan.
func (r PlannerResponse) Validate() error {
	if r.IsQuestion && r.Question == "" {
		return fmt.Errorf("isQuestion set but question empty")
	}
	if !r.IsQuestion && r.ProjectPlan == "" {
		return fmt.Errorf("isQuestion unset but projectPlan empty")
	}
	return nil
}

// PlannerState enumerates the dialogue states of the flipped-interaction
// machine.
type PlannerState int

const (
	// StateAwaitingStart means Start has not been called yet.
	StateAwaitingStart PlannerState = iota
	// StateAsking means the model has posed a question and awaits an answer.
	StateAsking
	// StateCompleted means the model produced its terminal plan; the
	// machine accepts no further input.
	StateCompleted
)

func (s PlannerState) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting-start"
	case StateAsking:
		return "asking"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// DefaultMaxRounds bounds the question/answer loop when PlannerConfig
// leaves MaxRounds unset. The reference interaction has no bound at all;
// a limit is required to guarantee termination.
const DefaultMaxRounds = 20

// PlannerConfig configures a Planner.
type PlannerConfig struct {
	// Kickoff is the opening instruction that flips the interaction,
	// telling the model to interview the user one question at a time.
	// Required.
	Kickoff string

	// MaxRounds caps the number of question/answer rounds. Zero means
	// DefaultMaxRounds.
	MaxRounds int

	// Store holds the dialogue history. Nil means a private in-memory
	// store.
	Store HistoryStore
}

// Planner runs the flipped-interaction pattern: the model interviews the
// user one question at a time and, once satisfied, emits a final plan.
//
// A Planner is a single-dialogue state machine and is not safe for
// concurrent use.
type Planner struct {
	inv       *Invoker
	kickoff   string
	maxRounds int
	store     HistoryStore
	sessionID string

	state  PlannerState
	rounds int
	plan   string
}

// NewPlanner creates a planner in StateAwaitingStart.
func NewPlanner(inv *Invoker, cfg PlannerConfig) *Planner {
	store := cfg.Store
	if store == nil {
		store = NewMemoryHistory()
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Planner{
		inv:       inv,
		kickoff:   cfg.Kickoff,
		maxRounds: maxRounds,
		store:     store,
		sessionID: NewSessionID(),
		state:     StateAwaitingStart,
	}
}

// State returns the current dialogue state.
func (p *Planner) State() PlannerState { return p.state }

// Rounds returns the number of questions asked so far.
func (p *Planner) Rounds() int { return p.rounds }

// Plan returns the terminal plan. It is only available once the machine
// reaches StateCompleted.
func (p *Planner) Plan() (string, error) {
	if p.state != StateCompleted {
		return "", fmt.Errorf("plan not ready in state %s", p.state)
	}
	if p.plan == "" {
		return "", fmt.Errorf("dialogue stopped at the round limit without a plan")
	}
	return p.plan, nil
}

// Start opens the dialogue with the kickoff instruction and returns the
// model's first reply. If the model asks a question the machine enters
// StateAsking; if it immediately produces a plan the machine completes.
func (p *Planner) Start(ctx context.Context) (*PlannerResponse, error) {
	if p.state != StateAwaitingStart {
		return nil, fmt.Errorf("already started in state %s", p.state)
	}
	if p.kickoff == "" {
		return nil, fmt.Errorf("planner kickoff instruction required")
	}
	return p.exchange(ctx, p.kickoff)
}

// Answer feeds the user's reply to the pending question back to the model
// and returns its next move. Input after completion is rejected with
// ErrCompleted; exceeding the round limit fails with ErrRoundLimit and
// completes the machine without a plan.
func (p *Planner) Answer(ctx context.Context, answer string) (*PlannerResponse, error) {
	switch p.state {
	case StateCompleted:
		return nil, ErrCompleted
	case StateAwaitingStart:
		return nil, ErrNotStarted
	}
	return p.exchange(ctx, answer)
}

func (p *Planner) exchange(ctx context.Context, input string) (*PlannerResponse, error) {
	turns, err := p.store.Recent(ctx, p.sessionID, p.maxRounds+1)
	if err != nil {
		return nil, err
	}

	resp, err := InvokeStructured[PlannerResponse](ctx, p.inv, TurnsToMessages(turns), input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := p.store.Append(ctx, p.sessionID, Turn{Role: RoleUser, Content: input, Timestamp: now}); err != nil {
		return nil, err
	}
	assistant := resp.Question
	if !resp.IsQuestion {
		assistant = resp.ProjectPlan
	}
	if err := p.store.Append(ctx, p.sessionID, Turn{Role: RoleAssistant, Content: assistant, Timestamp: now}); err != nil {
		return nil, err
	}

	if !resp.IsQuestion {
		p.state = StateCompleted
		p.plan = resp.ProjectPlan
		return &resp, nil
	}

	p.rounds++
	if p.rounds > p.maxRounds {
		p.state = StateCompleted
		return nil, ErrRoundLimit
	}
	p.state = StateAsking
	return &resp, nil
}
