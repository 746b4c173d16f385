package gemini

import (
	"errors"
	"fmt"
	"time"
)

// RetryableError indicates the API throttled the request (HTTP 429).
// Only throttling is retried; every other failure propagates on the
// first attempt.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// ErrRetriesExhausted is returned when every attempt was throttled.
var ErrRetriesExhausted = errors.New("gemini: retries exhausted")

// ErrMalformedEnvelope is returned when a 200 response lacks the expected
// candidates/content/parts/text path.
var ErrMalformedEnvelope = errors.New("gemini: malformed response envelope")

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the delay before re-attempting a throttled call:
// 2^attempt units for a 1-based attempt number.
func Backoff(attempt int, unit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(1<<uint(attempt)) * unit
}

const DefaultMaxAttempts = 3

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
