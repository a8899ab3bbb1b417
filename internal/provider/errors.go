package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType represents the type of provider error.
type ErrorType string

const (
	// ErrorTypeConfig indicates an invalid provider setting such as a bad host URL.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeAuth indicates a missing, invalid or rejected credential.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeUnavailable indicates the backend could not be reached or cannot serve the model.
	ErrorTypeUnavailable ErrorType = "unavailable"
	// ErrorTypeTimeout indicates the call exceeded its deadline.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeCanceled indicates the caller canceled the call.
	ErrorTypeCanceled ErrorType = "canceled"
	// ErrorTypeResponse indicates the backend answered with an unusable response.
	ErrorTypeResponse ErrorType = "response"
)

// Error is a structured error from a backend provider.
type Error struct {
	Err       error
	Provider  string
	Type      ErrorType
	Message   string
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s provider %s error: %s", e.Provider, e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a structured provider error wrapping err.
func NewError(provider string, errType ErrorType, err error) *Error {
	return &Error{
		Provider:  provider,
		Type:      errType,
		Message:   err.Error(),
		Err:       err,
		Retryable: isRetryable(errType),
	}
}

// NewErrorf creates a structured provider error with a formatted message.
func NewErrorf(provider string, errType ErrorType, format string, args ...any) *Error {
	return &Error{
		Provider:  provider,
		Type:      errType,
		Message:   fmt.Sprintf(format, args...),
		Retryable: isRetryable(errType),
	}
}

func isRetryable(errType ErrorType) bool {
	switch errType {
	case ErrorTypeTimeout, ErrorTypeUnavailable:
		return true
	default:
		return false
	}
}

// TypeOf returns the ErrorType of err, or "" when err is not a provider error.
func TypeOf(err error) ErrorType {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type
	}
	return ""
}

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	return TypeOf(err) == ErrorTypeAuth
}

// IsUnavailableError checks if the error means the backend is unreachable.
func IsUnavailableError(err error) bool {
	return TypeOf(err) == ErrorTypeUnavailable
}

// IsTimeoutError checks if the error is a timeout error.
func IsTimeoutError(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}

// IsConfigError checks if the error is a provider configuration error.
func IsConfigError(err error) bool {
	return TypeOf(err) == ErrorTypeConfig
}

// classify wraps a transport-level failure in an Error. parent is the
// caller's context, used to tell cancellation apart from the per-call timeout.
func classify(provider string, parent context.Context, err error) error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return err
	}

	if errors.Is(parent.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return NewError(provider, ErrorTypeCanceled, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(provider, ErrorTypeTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(provider, ErrorTypeTimeout, err)
	}

	if isConnectionError(err) {
		return NewError(provider, ErrorTypeUnavailable, err)
	}

	return NewError(provider, ErrorTypeResponse, err)
}

func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	// Some clients flatten transport errors into strings.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "no such host", "connection reset"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
