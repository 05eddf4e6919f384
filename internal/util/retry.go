package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds, up to maxAttempts calls, doubling the
// delay between calls from baseDelay. The error of the final attempt is
// returned when every call fails. Cancelling ctx during a backoff window
// returns ctx.Err().
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
