package util

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid request")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrQuestionExists     = errors.New("question already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExists      = errors.New("session already exists")
	ErrSessionCompleted   = errors.New("session already completed")
	ErrVersionConflict    = errors.New("session was modified concurrently, retry the request")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// NewValidationError wraps ErrValidation with a caller-facing reason.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
