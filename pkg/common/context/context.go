// Package context holds small helpers for classifying context state.
package context

import (
	"context"
	"errors"
)

// IsCanceled returns true if the context is done for any reason.
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a deadline.
func IsTimedOut(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

// IsInterrupted returns true if the context was canceled explicitly
// rather than by reaching its deadline.
func IsInterrupted(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// Cause returns the cancellation cause of ctx, falling back to ctx.Err().
// It returns nil while ctx is still live.
func Cause(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return ctx.Err()
}
