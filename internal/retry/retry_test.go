package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

func fastOptions(maxRetries int) Options {
	return Options{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		IsRetryable:  IsRateLimit,
	}
}

func rateLimitErr() error {
	return &googleapi.Error{Code: http.StatusTooManyRequests}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), func() (int, error) {
		calls++
		return 42, nil
	}, fastOptions(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 1 {
		t.Errorf("got %d after %d calls", got, calls)
	}
}

func TestDo_RetriesRateLimit(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", rateLimitErr()
		}
		return "ok", nil
	}, fastOptions(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestDo_NonRetryableSurfacesImmediately(t *testing.T) {
	permanent := errors.New("permission denied")
	calls := 0
	_, err := Do(context.Background(), func() (int, error) {
		calls++
		return 0, permanent
	}, fastOptions(5))
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_BoundedAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func() (int, error) {
		calls++
		return 0, rateLimitErr()
	}, fastOptions(3))
	if err == nil {
		t.Fatal("expected the last error to surface")
	}
	// Initial attempt plus three retries.
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, func() (int, error) {
		return 0, rateLimitErr()
	}, fastOptions(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"429", &googleapi.Error{Code: 429}, true},
		{"nested reason", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "rateLimitExceeded"}}}, true},
		{"user rate limit", &googleapi.Error{Code: 403, Errors: []googleapi.ErrorItem{{Reason: "userRateLimitExceeded"}}}, true},
		{"other api error", &googleapi.Error{Code: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimit(tt.err); got != tt.want {
				t.Errorf("IsRateLimit = %v, want %v", got, tt.want)
			}
		})
	}
}
