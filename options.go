package relay

import (
	"time"

	"github.com/zoobzio/pipz"
)

// WithRetry retries a failed stage up to maxAttempts times.
// Retrying a model call is not idempotent: regenerated text may differ
// between attempts. Reserve retries for read-only stages or accept the
// variance.
func WithRetry(maxAttempts int) Option {
	return func(stage Stage) Stage {
		return pipz.NewRetry("retry", stage, maxAttempts)
	}
}

// WithBackoff retries with exponential backoff, starting at baseDelay and
// doubling after each failure.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(stage Stage) Stage {
		return pipz.NewBackoff("backoff", stage, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds a stage's execution time. On expiry the in-flight
// provider call is abandoned via context cancellation, no record mutation
// is committed, and the error satisfies IsTimeout.
func WithTimeout(duration time.Duration) Option {
	return func(stage Stage) Stage {
		return pipz.NewTimeout("timeout", stage, duration)
	}
}

// WithCircuitBreaker opens the circuit for the recovery duration after the
// given number of consecutive failures.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(stage Stage) Stage {
		return pipz.NewCircuitBreaker("circuit-breaker", stage, failures, recovery)
	}
}

// WithRateLimit throttles stage invocations to rps requests per second
// with the given burst capacity.
func WithRateLimit(rps float64, burst int) Option {
	return func(stage Stage) Stage {
		limiter := pipz.NewRateLimiter[Record]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", limiter, stage)
	}
}

// WithFallback runs the fallback stage when the primary fails.
func WithFallback(fallback Stage) Option {
	return func(stage Stage) Stage {
		return pipz.NewFallback("with-fallback", stage, fallback)
	}
}

// WithErrorHandler routes stage errors through handler for logging or
// alerting. The original error still propagates to the caller.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[Record]]) Option {
	return func(stage Stage) Stage {
		return pipz.NewHandle("error-handler", stage, handler)
	}
}
