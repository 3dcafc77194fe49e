// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	ErrCodexNotRunning    = errors.New("codex is not running")
	ErrCodexNotInstalled  = errors.New("codex is not installed")
	ErrNoProject          = errors.New("no project folder selected")
	ErrInvalidProjectPath = errors.New("project path is not a directory")
	ErrGenerationActive   = errors.New("a response is already being generated")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrControllerClosed   = errors.New("session controller is not running")
	ErrInvalidCommand     = errors.New("invalid command")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrSubscriberClosed   = errors.New("subscriber is closed")
	ErrHubNotRunning      = errors.New("event hub is not running")
	ErrSettingNotFound    = errors.New("setting not found")
)

// Error codes for client responses.
const (
	ErrCodeGenerationActive = "GENERATION_ACTIVE"
	ErrCodeNoProject        = "NO_PROJECT"
	ErrCodeNotInstalled     = "CODEX_NOT_INSTALLED"
	ErrCodeInvalidPath      = "INVALID_PROJECT_PATH"
	ErrCodeEmptyMessage     = "EMPTY_MESSAGE"
	ErrCodeInvalidCommand   = "INVALID_COMMAND"
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// ErrorCode maps a domain error to the code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGenerationActive):
		return ErrCodeGenerationActive
	case errors.Is(err, ErrNoProject):
		return ErrCodeNoProject
	case errors.Is(err, ErrCodexNotInstalled):
		return ErrCodeNotInstalled
	case errors.Is(err, ErrInvalidProjectPath):
		return ErrCodeInvalidPath
	case errors.Is(err, ErrEmptyMessage):
		return ErrCodeEmptyMessage
	case errors.Is(err, ErrInvalidCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, ErrInvalidPayload):
		return ErrCodeInvalidPayload
	default:
		return ErrCodeInternalError
	}
}

// CodexError represents an error from codex CLI operations.
type CodexError struct {
	Op       string // Operation that failed
	Err      error  // Underlying error
	ExitCode int    // Exit code if process exited
}

func (e *CodexError) Error() string {
	if e.ExitCode != 0 {
		return fmt.Sprintf("codex %s: exit code %d: %v", e.Op, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("codex %s: %v", e.Op, e.Err)
}

func (e *CodexError) Unwrap() error {
	return e.Err
}

// NewCodexError creates a new CodexError.
func NewCodexError(op string, err error, exitCode int) *CodexError {
	return &CodexError{
		Op:       op,
		Err:      err,
		ExitCode: exitCode,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
