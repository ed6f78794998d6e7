package relay

import (
	"context"
	"strings"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Chain composes stages sequentially. Each stage receives the previous
// stage's output record; a failed stage aborts the remainder and the error
// propagates to the caller with no partial result.
func Chain(name string, stages ...Stage) Stage {
	return pipz.NewSequence(name, stages...)
}

// NewFanOut composes independent stages over a shared input record.
// Every stage receives its own copy of the input and runs concurrently as a
// latency optimization; correctness does not depend on the concurrency
// since fan-out stages may not read one another's output. The fields each
// stage added are merged into the input record in configured stage order,
// then the merge stage (if any) runs on the combined record.
//
// Any stage failure fails the whole fan-out; the error of the earliest
// configured failing stage is reported.
func NewFanOut(name string, merge Stage, stages ...Stage) Stage {
	return pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		outputs := make([]Record, len(stages))
		errs := make([]error, len(stages))

		var wg sync.WaitGroup
		for i, stage := range stages {
			wg.Add(1)
			go func(i int, stage Stage) {
				defer wg.Done()
				outputs[i], errs[i] = stage.Process(ctx, rec.Clone())
			}(i, stage)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return rec, err
			}
		}

		// Union of the input and every branch's new fields. Branch order
		// decides conflicts deterministically: the first branch to define a
		// field wins and later branches never overwrite it.
		combined := rec.Clone()
		for _, out := range outputs {
			for _, field := range out.Fields() {
				if _, exists := combined[field]; !exists {
					combined[field] = out[field]
				}
			}
		}

		if merge == nil {
			return combined, nil
		}
		return merge.Process(ctx, combined)
	})
}

// Route pairs a predicate label with the stage it dispatches to.
// A route matches when its Match string appears, case-insensitively, in the
// classifier's raw output label.
type Route struct {
	Match string
	Stage Stage
}

// NewRouter composes classifier-routed branching. The stage reads the
// classifier's label from classifierField and dispatches to exactly one
// route: the first route in configured order whose Match is contained in
// the label. When nothing matches, the fallback stage runs; with a nil
// fallback the router fails with a RoutingError instead.
//
// The classifier stage itself runs upstream, typically chained directly
// before the router.
func NewRouter(name, classifierField string, routes []Route, fallback Stage) Stage {
	return pipz.Apply(name, func(ctx context.Context, rec Record) (Record, error) {
		label, err := rec.String(classifierField)
		if err != nil {
			return rec, err
		}

		lowered := strings.ToLower(label)
		for _, route := range routes {
			if strings.Contains(lowered, strings.ToLower(route.Match)) {
				capitan.Info(ctx, RouteMatched,
					StageKey.Field(name),
					RouteKey.Field(route.Match),
					LabelKey.Field(label),
				)
				return route.Stage.Process(ctx, rec)
			}
		}

		if fallback == nil {
			rerr := &RoutingError{Label: label}
			capitan.Error(ctx, StageFailed,
				StageKey.Field(name),
				ErrorKey.Field(rerr.Error()),
			)
			return rec, rerr
		}

		capitan.Info(ctx, RouteDefaulted,
			StageKey.Field(name),
			LabelKey.Field(label),
		)
		return fallback.Process(ctx, rec)
	})
}

// BatchResult holds the outcome of one input in a batched invocation.
type BatchResult struct {
	Record Record
	Err    error
}

// RunBatch invokes the pipeline once per input record and collects results
// in input order. The batch is best-effort: a failed input carries its
// error in its own slot and does not block the remaining inputs. Only ctx
// cancellation stops the batch early, leaving untried slots with the
// context error.
func RunBatch(ctx context.Context, pipeline Stage, inputs []Record) []BatchResult {
	results := make([]BatchResult, len(inputs))
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = BatchResult{Err: err}
			continue
		}
		out, err := pipeline.Process(ctx, input)
		if err != nil {
			results[i] = BatchResult{Err: err}
			continue
		}
		results[i] = BatchResult{Record: out}
	}
	return results
}
