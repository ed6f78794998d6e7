package relay

import (
	"context"
	"strings"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Stage is the unit of pipeline composition: it consumes a record and
// produces an augmented record. Any pipz.Chainable over Record is a stage,
// so pipz connectors and the constructors below compose freely.
type Stage = pipz.Chainable[Record]

// Option wraps a stage with reliability behavior. Options apply outermost
// last, so the first option listed sits closest to the stage.
type Option func(Stage) Stage

// NewPromptStage builds the canonical template → invoker → text stage.
// The template renders against the input record, the invoker is called with
// the rendered prompt, and the trimmed response text is written to
// outputField. All input fields pass through untouched.
func NewPromptStage(name string, tmpl *Template, inv *Invoker, outputField string, opts ...Option) Stage {
	stage := pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		prompt, err := tmpl.Render(rec)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		capitan.Info(ctx, StageStarted,
			StageKey.Field(name),
			OutputFieldKey.Field(outputField),
		)

		out, err := inv.Invoke(ctx, nil, prompt)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		capitan.Info(ctx, StageCompleted,
			StageKey.Field(name),
			OutputFieldKey.Field(outputField),
		)
		return rec.With(outputField, strings.TrimSpace(out)), nil
	})
	return applyOptions(stage, opts)
}

// NewStructuredStage builds a stage whose model output must match T.
// The rendered prompt is augmented with T's JSON schema; the validated T
// value is written to outputField. Malformed or invalid output fails the
// stage with a SchemaParseError and leaves the record uncommitted.
func NewStructuredStage[T Validator](name string, tmpl *Template, inv *Invoker, outputField string, opts ...Option) Stage {
	stage := pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		prompt, err := tmpl.Render(rec)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		capitan.Info(ctx, StageStarted,
			StageKey.Field(name),
			OutputFieldKey.Field(outputField),
		)

		result, err := InvokeStructured[T](ctx, inv, nil, prompt)
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}

		capitan.Info(ctx, StageCompleted,
			StageKey.Field(name),
			OutputFieldKey.Field(outputField),
		)
		return rec.With(outputField, result), nil
	})
	return applyOptions(stage, opts)
}

// NewTransformStage builds a stage from a fixed transformation function.
// The function receives a copy of the record; whatever it returns becomes
// the stage output.
func NewTransformStage(name string, fn func(context.Context, Record) (Record, error)) Stage {
	return pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		out, err := fn(ctx, rec.Clone())
		if err != nil {
			emitStageFailed(ctx, name, err)
			return rec, err
		}
		return out, nil
	})
}

// NewStaticStage builds a stage that writes a fixed value to outputField.
// Useful as a router default answer.
func NewStaticStage(name, outputField string, value any) Stage {
	return pipz.Apply(name, func(_ context.Context, rec Record) (Record, error) {
		return rec.With(outputField, value), nil
	})
}

func emitStageFailed(ctx context.Context, name string, err error) {
	capitan.Error(ctx, StageFailed,
		StageKey.Field(name),
		ErrorKey.Field(err.Error()),
	)
}

func applyOptions(stage Stage, opts []Option) Stage {
	for _, opt := range opts {
		stage = opt(stage)
	}
	return stage
}
