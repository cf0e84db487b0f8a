package remote

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      ErrorType
		retryable bool
	}{
		{"canceled", context.Canceled, ErrTypeCanceled, false},
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout, true},
		{"dns", &net.DNSError{Name: "nowhere.invalid"}, ErrTypeDNS, false},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ErrTypeConnectionRefused, true},
		{"unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, ErrTypeNetwork, true},
		{"other", errors.New("boom"), ErrTypeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err, "asset store")
			if got.Type != tt.want {
				t.Errorf("Type = %v, want %v", got.Type, tt.want)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if ClassifyNetworkError(nil, "") != nil {
		t.Error("nil error should classify to nil")
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		want      ErrorType
		retryable bool
		msg       string
	}{
		{http.StatusUnauthorized, `{"error":"bad token"}`, ErrTypeAuth, false, "bad token"},
		{http.StatusRequestEntityTooLarge, `{"error": "image exceeds 10MB"}`, ErrTypeValidation, false, "image exceeds 10MB"},
		{http.StatusBadGateway, "upstream down", ErrTypeHTTP, true, "upstream down"},
		{http.StatusTooManyRequests, "", ErrTypeHTTP, true, "Too Many Requests"},
		{http.StatusNotFound, "", ErrTypeHTTP, false, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			rec := httptest.NewRecorder()
			rec.WriteHeader(tt.status)
			_, _ = rec.WriteString(tt.body)

			err := CheckResponse("transform service", rec.Result())
			if TypeOf(err) != tt.want {
				t.Errorf("TypeOf = %v, want %v", TypeOf(err), tt.want)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(err), tt.retryable)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should mention %q", err, tt.msg)
			}
		})
	}

	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusCreated)
	if err := CheckResponse("x", rec.Result()); err != nil {
		t.Errorf("2xx should pass, got %v", err)
	}
}

func TestRetryPolicyDo(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, RetryDelay: time.Millisecond, MaxRetryDelay: 2 * time.Millisecond, UseExponentialBackoff: true}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return NewHTTPError("s", 503, "unavailable")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("stops on non-retryable", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			return NewAuthError("s", "nope", 401)
		})
		if !IsAuthError(err) {
			t.Errorf("err = %v, want auth error", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := policy.Do(context.Background(), func(context.Context) error {
			calls++
			return NewHTTPError("s", 500, "broken")
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
	})

	t.Run("stops when context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxRetries: 5, RetryDelay: time.Hour}
		calls := 0
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		err := slow.Do(ctx, func(context.Context) error {
			calls++
			return NewHTTPError("s", 500, "broken")
		})
		if err == nil || calls != 1 {
			t.Errorf("calls = %d, err = %v", calls, err)
		}
	})
}

func TestShortMessage(t *testing.T) {
	err := ClassifyNetworkError(context.DeadlineExceeded, "Transform service")
	if got := ShortMessage(err); got != "Transform service timed out, try again" {
		t.Errorf("ShortMessage() = %q", got)
	}
	if got := ShortMessage(errors.New("plain")); got != "plain" {
		t.Errorf("ShortMessage(plain) = %q", got)
	}
	if !strings.Contains(GetTroubleshootingHint(NewAuthError("", "x", 401)), "token") {
		t.Error("auth hint should mention the token")
	}
}
