// Package errors provides the typed error taxonomy for the madlib engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeGuardrailRejected ErrorCode = "GUARDRAIL_REJECTED"

	ErrCodeTemplateGenerationFailed ErrorCode = "TEMPLATE_GENERATION_FAILED"
	ErrCodeTemplateMalformed        ErrorCode = "TEMPLATE_MALFORMED"

	ErrCodeWordGenerationFailed      ErrorCode = "WORD_GENERATION_FAILED"
	ErrCodeNounValidationUnavailable ErrorCode = "NOUN_VALIDATION_UNAVAILABLE"

	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewGuardrailRejected creates a non-retryable rejection of the session topic.
// Reasoning is the content checker's explanation, surfaced to the user.
func NewGuardrailRejected(topic, reasoning string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGuardrailRejected,
		Message:   fmt.Sprintf("Topic '%s' is not family-friendly", topic),
		Details:   reasoning,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateGenerationFailed creates a retryable template generation error.
func NewTemplateGenerationFailed(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateGenerationFailed,
		Message:   "Template generator error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTemplateMalformed creates a non-retryable error for generator output
// that violates the template contract (wrong marker count or coverage).
func NewTemplateMalformed(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateMalformed,
		Message:   "Generated template violates the placeholder contract",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWordGenerationFailed creates a retryable word batch error.
func NewWordGenerationFailed(kind string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWordGenerationFailed,
		Message:   fmt.Sprintf("Word generation failed for kind '%s'", kind),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNounValidationUnavailable creates a retryable validator transport error.
func NewNounValidationUnavailable(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNounValidationUnavailable,
		Message:   "Noun validator unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPersistenceFailed creates a persistence error. It is retryable from the
// caller's point of view but never aborts a session.
func NewPersistenceFailed(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Failed to save completed madlib",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Structural Checks
// ==========================

// CodeOf extracts the error code, or "" if err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsGuardrailRejection reports whether err is a topic rejection, as opposed
// to a transient failure.
func IsGuardrailRejection(err error) bool {
	return CodeOf(err) == ErrCodeGuardrailRejected
}

// IsRetryable reports whether the failure is worth retrying as-is.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// UserMessage renders err as a human-readable line that distinguishes
// rejection (try a different topic) from transient failure (try again).
func UserMessage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return fmt.Sprintf("An error occurred: %v. Please try again.", err)
	}

	switch stdErr.Code {
	case ErrCodeGuardrailRejected:
		return fmt.Sprintf("%s. Please try again with a different topic!", stdErr.Message)
	case ErrCodePersistenceFailed:
		return "Your madlib is complete, but saving it failed."
	default:
		if stdErr.Retryable {
			return fmt.Sprintf("%s. Please try again.", stdErr.Message)
		}
		return stdErr.Message
	}
}
