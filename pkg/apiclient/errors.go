package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	baseBackoff = time.Second
	maxBackoff  = 10 * time.Second
)

// APIError is a response the server answered with a non-2xx status.
type APIError struct {
	Status   int
	Endpoint string
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// UserMessage is safe to show to an end user.
func (e *APIError) UserMessage() string {
	switch e.Status {
	case http.StatusBadRequest:
		return "Invalid request. Please check your input and try again."
	case http.StatusUnauthorized:
		return "Authentication required. Please log in and try again."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	case http.StatusInternalServerError:
		return "Server error. We're working to fix this issue."
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "Service temporarily unavailable. Please try again later."
	}
	if e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred."
}

// Retryable reports server side and throttling failures.
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// NetworkError means no response was received at all.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Message == "" {
		return "network connection failed"
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) UserMessage() string {
	return "Unable to connect to the server. Please check your internet connection."
}

func (e *NetworkError) Retryable() bool { return true }

// Classify turns any failure from a call to endpoint into an *APIError or a
// *NetworkError. Already classified errors are returned unchanged.
func Classify(err error, endpoint string) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr
	}

	if isNetworkFailure(err) {
		return &NetworkError{Message: "failed to connect to server: " + err.Error(), Err: err}
	}
	return &APIError{Status: http.StatusInternalServerError, Endpoint: endpoint, Message: err.Error(), Err: err}
}

func isNetworkFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}

// ShouldRetry reports whether a call that failed with err on attempt (1-based)
// gets another try within maxAttempts.
func ShouldRetry(err error, attempt, maxAttempts int) bool {
	if attempt >= maxAttempts {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// BackoffDelay is the wait before retry number attempt+1: 1s, 2s, 4s, 8s,
// then capped at 10s.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 4 {
		return maxBackoff
	}
	d := baseBackoff << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// ErrorMessage returns the user facing message for err, plus the technical
// detail when includeDetails is set.
func ErrorMessage(err error, includeDetails bool) (message, details string) {
	type userMessager interface{ UserMessage() string }

	var um userMessager
	if errors.As(err, &um) {
		message = um.UserMessage()
	} else {
		message = "An unexpected error occurred."
	}
	if includeDetails && err != nil {
		details = err.Error()
	}
	return message, details
}
