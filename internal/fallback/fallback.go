// Package fallback provides the ordered-candidate combinator shared by the
// encoder planner, the upload sink chain, and the acquisition strategy
// ladder: try each candidate in turn and stop at the first success.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when TryInOrder is called with an empty list.
var ErrNoCandidates = errors.New("no candidates to try")

// Fatal wraps an error so TryInOrder stops immediately instead of moving on
// to the next candidate.
type Fatal struct {
	Err error
}

func (f Fatal) Error() string { return f.Err.Error() }
func (f Fatal) Unwrap() error { return f.Err }

// Abort marks err as fatal for TryInOrder.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return Fatal{Err: err}
}

// TryInOrder attempts candidates sequentially and returns the first
// successful result. When every candidate fails the errors are joined so the
// caller can surface the full ladder of diagnostics. A Fatal-wrapped error or
// a cancelled context stops the ladder at once.
func TryInOrder[C, R any](ctx context.Context, candidates []C, attempt func(context.Context, C) (R, error)) (R, error) {
	var zero R
	if len(candidates) == 0 {
		return zero, ErrNoCandidates
	}

	failures := make([]error, 0, len(candidates))
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := attempt(ctx, candidate)
		if err == nil {
			return result, nil
		}
		var fatal Fatal
		if errors.As(err, &fatal) {
			return zero, fatal.Err
		}
		failures = append(failures, fmt.Errorf("candidate %d: %w", i+1, err))
	}
	return zero, errors.Join(failures...)
}
