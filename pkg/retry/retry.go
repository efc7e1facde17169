// Package retry runs an operation up to a fixed attempt budget with
// exponential backoff, reporting the outcome as an explicit result value
// rather than signalling per-attempt failures through panics or sentinel
// control flow.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy bounds a retried operation.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first try.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt; it doubles after
	// every further failure. No delay follows the final attempt.
	InitialDelay time.Duration
}

// DefaultPolicy matches the provisioning contract: 3 attempts, 1s then 2s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialDelay: time.Second}
}

// Result reports how a retried operation ended.
type Result struct {
	// Attempts is the number of attempts actually made.
	Attempts int
	// Err is the error from the last attempt, nil on success.
	Err error
}

func (r Result) Success() bool {
	return r.Err == nil
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps an error so that Do stops immediately instead of retrying.
// Used for failures that more attempts cannot fix, such as missing
// configuration.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Do runs op until it succeeds, the attempt budget is exhausted, op returns
// a permanent error, or ctx is done. The returned Result always carries the
// attempt count and the last error.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) Result {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return Result{Attempts: attempt}
		}

		if IsPermanent(lastErr) {
			var pe *permanentError
			errors.As(lastErr, &pe)
			return Result{Attempts: attempt, Err: pe.err}
		}

		if attempt == p.MaxAttempts {
			return Result{Attempts: attempt, Err: lastErr}
		}

		select {
		case <-ctx.Done():
			return Result{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	return Result{Attempts: p.MaxAttempts, Err: lastErr}
}
