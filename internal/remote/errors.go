package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (connection reset, unreachable, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeAuth indicates a missing or rejected credential
	ErrTypeAuth
	// ErrTypeHTTP indicates an HTTP-level error (unexpected status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response body
	ErrTypeParse
	// ErrTypeValidation indicates the request was rejected before or by the service as invalid
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the service refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeCanceled indicates the caller gave up on the request
	ErrTypeCanceled
	// ErrTypeUnknown indicates an unknown or unexpected error
	ErrTypeUnknown
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeCanceled:
		return "Canceled"
	case ErrTypeUnknown:
		return "Unknown Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a failure talking to a remote service (asset store or text-transform service).
type Error struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
	Service    string    // Which service failed, for hints
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a typed error.
func ClassifyNetworkError(err error, service string) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Type: ErrTypeCanceled, Message: "Request canceled", Err: err, Service: service}
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &Error{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Service: service, Retryable: true}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Service: service,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return &Error{Type: ErrTypeConnectionRefused, Message: "Service refused connection", Err: err, Service: service, Retryable: true}
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return &Error{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err, Service: service, Retryable: true}
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return &Error{Type: ErrTypeNetwork, Message: "Network unreachable", Err: err, Service: service, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, service)
	}

	return &Error{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Service: service, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(service, message string, err error) *Error {
	classified := ClassifyNetworkError(err, service)
	if classified != nil {
		classified.Message = message
		return classified
	}
	return &Error{Type: ErrTypeNetwork, Message: message, Service: service, Retryable: true}
}

// NewAuthError creates an authentication error
func NewAuthError(service, message string, statusCode int) *Error {
	return &Error{Type: ErrTypeAuth, Message: message, StatusCode: statusCode, Service: service}
}

// NewHTTPError creates an HTTP-level error. Server errors and 429 are retryable.
func NewHTTPError(service string, statusCode int, message string) *Error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests
	return &Error{Type: ErrTypeHTTP, Message: message, StatusCode: statusCode, Service: service, Retryable: retryable}
}

// NewParseError creates a parsing error
func NewParseError(service, message string, err error) *Error {
	return &Error{Type: ErrTypeParse, Message: message, Err: err, Service: service}
}

// NewValidationError creates a validation error
func NewValidationError(service, message string) *Error {
	return &Error{Type: ErrTypeValidation, Message: message, Service: service}
}

// TypeOf returns the ErrorType of err, or ErrTypeUnknown.
func TypeOf(err error) ErrorType {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr.Type
	}
	return ErrTypeUnknown
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	switch TypeOf(err) {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return TypeOf(err) == ErrTypeAuth
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var rErr *Error
	if errors.As(err, &rErr) {
		return rErr.Retryable
	}
	return false
}

// ShortMessage returns a one-line message suitable for an inline banner.
func ShortMessage(err error) string {
	var rErr *Error
	if !errors.As(err, &rErr) {
		return err.Error()
	}
	switch rErr.Type {
	case ErrTypeTimeout:
		return fmt.Sprintf("%s timed out, try again", serviceName(rErr.Service))
	case ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeNetwork:
		return fmt.Sprintf("%s is unreachable", serviceName(rErr.Service))
	case ErrTypeAuth:
		return fmt.Sprintf("%s rejected the credentials", serviceName(rErr.Service))
	case ErrTypeHTTP:
		return fmt.Sprintf("%s returned HTTP %d", serviceName(rErr.Service), rErr.StatusCode)
	default:
		return rErr.Message
	}
}

// GetTroubleshootingHint returns user-friendly troubleshooting advice for an error
func GetTroubleshootingHint(err error) string {
	var rErr *Error
	if !errors.As(err, &rErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch rErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The service did not respond in time.",
			"Troubleshooting:",
			"  • Check that inkwell-server is running",
			"  • Large images take longer; try a smaller file",
			"  • Raise editor.transform_timeout_sec for slow models",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The service refused the connection.",
			"Troubleshooting:",
			"  • Start it with 'inkwell-server serve'",
			"  • Check services.server_url in the config file",
			"  • Use --discover to find a server on the local network",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the service hostname.",
			"Troubleshooting:",
			"  • Use an IP address instead of a hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeAuth:
		return strings.Join([]string{
			"The service rejected the request credentials.",
			"Troubleshooting:",
			"  • Check the token environment variable named in the config file",
			"  • For GitHub storage, the token needs contents:write permission",
		}, "\n")

	case ErrTypeHTTP:
		if rErr.StatusCode >= 500 {
			return "The service reported an internal error. Check its logs and try again."
		}
		return fmt.Sprintf("The service answered with HTTP %d. Check the request and server configuration.", rErr.StatusCode)

	case ErrTypeParse:
		return "The service response could not be understood. Check that the server version matches this editor."

	case ErrTypeValidation:
		return fmt.Sprintf("The request was rejected: %s", rErr.Message)

	default:
		return "A network error occurred. Check your connection and try again."
	}
}

func serviceName(s string) string {
	if s == "" {
		return "The service"
	}
	return s
}
