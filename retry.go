package lixi

import (
	"context"
	"fmt"
	"time"
)

// retrier runs storage operations with exponential backoff
type retrier struct {
	attempts  int
	baseDelay time.Duration
	logger    Logger
}

func newRetrier(attempts int, baseDelay time.Duration, logger Logger) retrier {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return retrier{attempts: attempts, baseDelay: baseDelay, logger: logger}
}

// backoff returns baseDelay * 2^(attempt-1), capped at MaxRetryDelay
func (r retrier) backoff(attempt int) time.Duration {
	delay := time.Duration(1<<(attempt-1)) * r.baseDelay
	if delay > MaxRetryDelay || delay < 0 {
		delay = MaxRetryDelay
	}
	return delay
}

// do executes fn, retrying retriable errors up to r.attempts extra times
func (r retrier) do(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	startTime := time.Now()

	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff(attempt)
			r.logger.Debug("Retrying %s operation (attempt %d/%d) after %v backoff, total elapsed: %v",
				operation, attempt, r.attempts, delay, time.Since(startTime))

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry for %s operation after %v (attempt %d/%d): %w",
					operation, time.Since(startTime), attempt, r.attempts+1, ctx.Err())
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Completed %s operation after %d retries (total time: %v)",
					operation, attempt, time.Since(startTime))
			}
			return nil
		}

		lastErr = err
		if !IsRetryableError(err) {
			r.logger.Debug("Non-retriable error for %s operation (attempt %d): %v", operation, attempt+1, err)
			break
		}

		if attempt == r.attempts {
			r.logger.Error("Final retry attempt failed for %s operation (attempt %d/%d): %v",
				operation, attempt+1, r.attempts+1, err)
		}
	}

	return fmt.Errorf("%s operation failed after %v: %w", operation, time.Since(startTime), lastErr)
}
