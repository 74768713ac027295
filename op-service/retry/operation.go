package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrFailedPermanently is returned when all attempts of an operation failed.
type ErrFailedPermanently struct {
	attempts int
	LastErr  error
}

func (e *ErrFailedPermanently) Error() string {
	return fmt.Sprintf("operation failed permanently after %d attempts: %v", e.attempts, e.LastErr)
}

func (e *ErrFailedPermanently) Unwrap() error {
	return e.LastErr
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks an error of an operation as not worth retrying.
// Do returns the wrapped error right away.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do performs the provided Operation up to maxAttempts times
// with delays in between each retry according to the provided
// Strategy. The context is checked between attempts, and its
// error is returned if it is done before the operation succeeds.
func Do[T any](ctx context.Context, maxAttempts int, strategy Strategy, op func() (T, error)) (T, error) {
	var empty, ret T
	var err error
	if maxAttempts < 1 {
		return empty, fmt.Errorf("need at least 1 attempt to run op, but have %d max attempts", maxAttempts)
	}

	for i := 0; i < maxAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return empty, ctxErr
		}
		ret, err = op()
		if err == nil {
			return ret, nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return empty, perm.err
		}
		// Don't sleep when we are about to exit the loop & return ErrFailedPermanently
		if i != maxAttempts-1 {
			select {
			case <-ctx.Done():
				return empty, ctx.Err()
			case <-time.After(strategy.Duration(i)):
			}
		}
	}
	return empty, &ErrFailedPermanently{
		attempts: maxAttempts,
		LastErr:  err,
	}
}
