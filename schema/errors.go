package schema

import (
	"errors"
	"fmt"
)

var (
	// Tool-related errors
	ErrToolAlreadyExists   = errors.New("tool already exists")
	ErrToolExecutionFailed = errors.New("tool execution failed")
	ErrToolTimeout         = errors.New("tool execution timeout")
	ErrUnsupported         = errors.New("capability not supported on this device")

	// Fetch-related errors
	ErrFetchTransient = errors.New("transient fetch failure")
	ErrFetchStatus    = errors.New("unexpected http status")

	// LLM-related errors
	ErrModelAPIError  = errors.New("model API error")
	ErrModelRateLimit = errors.New("model rate limit exceeded")

	// Transport-related errors
	ErrTransportClosed = errors.New("transport closed")

	// Common errors
	ErrInvalidInput = errors.New("invalid input")
	ErrTimeout      = errors.New("operation timeout")
)

type ToolError struct {
	ToolName string
	Op       string
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s: %s: %v", e.ToolName, e.Op, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func NewToolError(toolName, op string, err error) *ToolError {
	return &ToolError{
		ToolName: toolName,
		Op:       op,
		Err:      err,
	}
}

type ModelError struct {
	Model string
	Op    string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s: %s: %v", e.Model, e.Op, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

func NewModelError(model, op string, err error) *ModelError {
	return &ModelError{
		Model: model,
		Op:    op,
		Err:   err,
	}
}

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

// Is lets callers match any validation failure with ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrFetchTransient):
		return true
	case errors.Is(err, ErrModelRateLimit):
		return true
	case errors.Is(err, ErrModelAPIError):
		return true
	case errors.Is(err, ErrTimeout):
		return true
	default:
		return false
	}
}
