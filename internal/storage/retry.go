package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryableError is a remote failure worth retrying (rate limiting).
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, msg)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the wait before retry attempt n (0-indexed): 2^n
// seconds, capped at ceiling.
func Backoff(attempt int, ceiling time.Duration) time.Duration {
	if attempt > 30 {
		return ceiling
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if ceiling > 0 && d > ceiling {
		d = ceiling
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
