package util

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultBackoff is the first wait of RetryWithBackoff; each retry doubles it.
const DefaultBackoff = time.Second

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// RetryWithBackoff calls fn up to maxRetries+1 times with exponential backoff
// starting at DefaultBackoff.
func RetryWithBackoff(ctx context.Context, maxRetries int, fn func(attempt int) error) error {
	return Retry(ctx, maxRetries, DefaultBackoff, fn)
}

// Retry calls fn until it succeeds, returns a Permanent error, or has run
// maxRetries+1 times. fn receives the 0-indexed attempt number. The wait
// before retry n is base*2^n. A cancelled context stops the loop with the
// context error.
func Retry(ctx context.Context, maxRetries int, base time.Duration, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if IsPermanent(lastErr) {
			return lastErr
		}
		if attempt == maxRetries {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(base << attempt):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
