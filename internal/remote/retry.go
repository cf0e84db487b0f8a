package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default retry configuration
const (
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultMaxRetryDelay = 5 * time.Second
	DefaultTimeout       = 30 * time.Second
)

// RetryPolicy controls how many times and how patiently a request is repeated.
type RetryPolicy struct {
	MaxRetries            int
	RetryDelay            time.Duration
	MaxRetryDelay         time.Duration
	UseExponentialBackoff bool
}

// DefaultRetryPolicy returns the policy used by the HTTP clients.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// NoRetry performs exactly one attempt.
func NoRetry() RetryPolicy {
	return RetryPolicy{}
}

// Do runs attempt until it succeeds, returns a non-retryable error, the
// retries are exhausted, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, attempt func(ctx context.Context) error) error {
	var lastErr error
	currentDelay := p.RetryDelay

	for i := 0; i <= p.MaxRetries; i++ {
		if i > 0 {
			t := time.NewTimer(currentDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				if lastErr != nil {
					return lastErr
				}
				return ClassifyNetworkError(ctx.Err(), "")
			case <-t.C:
			}

			if p.UseExponentialBackoff {
				currentDelay *= 2
				if p.MaxRetryDelay > 0 && currentDelay > p.MaxRetryDelay {
					currentDelay = p.MaxRetryDelay
				}
			}
		}

		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || ctx.Err() != nil {
			return err
		}
	}

	return lastErr
}

// CheckResponse maps a non-2xx response to a typed error. The body is read
// (bounded) for the message but not closed.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewAuthError(service, fmt.Sprintf("authentication failed: %s", msg), resp.StatusCode)
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		e := NewValidationError(service, msg)
		e.StatusCode = resp.StatusCode
		return e
	default:
		return NewHTTPError(service, resp.StatusCode, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, msg))
	}
}

// errorMessage pulls a message out of a JSON {"error": "..."} body, falling
// back to the trimmed raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(body))
}
