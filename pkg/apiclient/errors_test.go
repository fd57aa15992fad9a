package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestUserMessages(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{400, "Invalid request. Please check your input and try again."},
		{401, "Authentication required. Please log in and try again."},
		{403, "You do not have permission to perform this action."},
		{404, "The requested resource was not found."},
		{429, "Too many requests. Please wait a moment and try again."},
		{500, "Server error. We're working to fix this issue."},
		{502, "Service temporarily unavailable. Please try again later."},
		{503, "Service temporarily unavailable. Please try again later."},
		{504, "Service temporarily unavailable. Please try again later."},
		{418, "teapot"},
	}
	for _, tc := range cases {
		err := &APIError{Status: tc.status, Message: "teapot"}
		if got := err.UserMessage(); got != tc.want {
			t.Errorf("status %d: %q, want %q", tc.status, got, tc.want)
		}
	}
	if got := (&APIError{Status: 418}).UserMessage(); got != "An unexpected error occurred." {
		t.Errorf("empty message fallback = %q", got)
	}
	if got := (&NetworkError{}).UserMessage(); got != "Unable to connect to the server. Please check your internet connection." {
		t.Errorf("network message = %q", got)
	}
}

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		attempt int
		want    bool
	}{
		{"503", &APIError{Status: 503}, 1, true},
		{"500", &APIError{Status: 500}, 2, true},
		{"429", &APIError{Status: 429}, 1, true},
		{"404", &APIError{Status: 404}, 1, false},
		{"400", &APIError{Status: 400}, 1, false},
		{"network", &NetworkError{}, 1, true},
		{"wrapped network", fmt.Errorf("call: %w", &NetworkError{}), 1, true},
		{"budget spent", &APIError{Status: 503}, 3, false},
		{"unclassified", errors.New("boom"), 1, false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err, tc.attempt, 3); got != tc.want {
			t.Errorf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		10 * time.Second, 10 * time.Second, 10 * time.Second,
	}
	for attempt, w := range want {
		if got := BackoffDelay(attempt); got != w {
			t.Errorf("BackoffDelay(%d) = %v, want %v", attempt, got, w)
		}
	}
	if got := BackoffDelay(100); got != 10*time.Second {
		t.Errorf("BackoffDelay(100) = %v", got)
	}
}

func TestClassify(t *testing.T) {
	if Classify(nil, "/x") != nil {
		t.Error("nil error classified")
	}

	apiErr := &APIError{Status: 404, Endpoint: "/x"}
	if got := Classify(fmt.Errorf("wrapped: %w", apiErr), "/y"); got != apiErr {
		t.Errorf("APIError not passed through: %v", got)
	}

	var netErr *NetworkError
	if !errors.As(Classify(context.DeadlineExceeded, "/x"), &netErr) {
		t.Error("timeout not classified as a network error")
	}
	if !errors.As(Classify(errors.New("dial tcp: connection refused"), "/x"), &netErr) {
		t.Error("refused connection not classified as a network error")
	}

	var classified *APIError
	if !errors.As(Classify(errors.New("boom"), "/x"), &classified) || classified.Status != http.StatusInternalServerError || classified.Endpoint != "/x" {
		t.Errorf("opaque error = %+v, want 500 APIError for /x", classified)
	}
}

func TestErrorMessage(t *testing.T) {
	err := &APIError{Status: 404, Endpoint: "/exam/complete", Message: "session not found: s1"}

	msg, details := ErrorMessage(err, false)
	if msg != "The requested resource was not found." || details != "" {
		t.Errorf("ErrorMessage = %q, %q", msg, details)
	}
	_, details = ErrorMessage(err, true)
	if details != err.Error() {
		t.Errorf("details = %q, want %q", details, err.Error())
	}

	msg, _ = ErrorMessage(errors.New("boom"), false)
	if msg != "An unexpected error occurred." {
		t.Errorf("unclassified message = %q", msg)
	}
}
