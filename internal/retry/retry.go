// Package retry wraps fallible operations in exponential backoff with
// jitter, gated on a rate-limit predicate. It is a pure higher-order
// wrapper; callers supply the predicate.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

// Options control the backoff schedule.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// IsRetryable decides whether an error is worth retrying. Errors it
	// rejects surface immediately.
	IsRetryable func(error) bool
}

// DefaultOptions is the provider-call schedule: 5 retries, 1s..32s.
func DefaultOptions() Options {
	return Options{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     32 * time.Second,
		IsRetryable:  IsRateLimit,
	}
}

// Do runs op, retrying rate-limited failures with exponential backoff and
// uniform jitter in [0.5, 1.0]. After the initial attempt and MaxRetries
// retries have all failed, the last error is returned.
func Do[T any](ctx context.Context, op func() (T, error), opts Options) (T, error) {
	var zero T
	if opts.IsRetryable == nil {
		opts.IsRetryable = IsRateLimit
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !opts.IsRetryable(err) {
			return zero, err
		}
		if attempt == opts.MaxRetries {
			break
		}

		delay := opts.InitialDelay << uint(attempt)
		if delay > opts.MaxDelay || delay <= 0 {
			delay = opts.MaxDelay
		}
		jittered := time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jittered):
		}
	}
	return zero, lastErr
}

// IsRateLimit reports whether err is a provider rate-limit response
// (HTTP 429 or the equivalent nested reason).
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return true
		}
		for _, e := range apiErr.Errors {
			if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}
