// Package errors provides the coded error taxonomy for form submission.
package errors

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeFieldValidationFailed      ErrorCode = "FIELD_VALIDATION_FAILED"
	ErrCodeCrossFieldValidationFailed ErrorCode = "CROSS_FIELD_VALIDATION_FAILED"

	ErrCodeImageEncodeFailed ErrorCode = "IMAGE_ENCODE_FAILED"

	ErrCodeSubmitInProgress ErrorCode = "SUBMIT_IN_PROGRESS"

	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	return ok && t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewFieldValidationError reports field-level rule violations. fields maps
// field name to message.
func NewFieldValidationError(fields map[string]string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldValidationFailed,
		Message:   "One or more fields are invalid",
		Details:   joinFields(fields),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewCrossFieldValidationError reports a failed dependency between fields,
// attributed to field.
func NewCrossFieldValidationError(field, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCrossFieldValidationFailed,
		Message:   message,
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": map[string]string{field: message}},
		Timestamp: time.Now().UTC(),
	}
}

// NewImageEncodeError aborts a submit attempt; the user may submit again.
func NewImageEncodeError(fileName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImageEncodeFailed,
		Message:   "Image could not be read",
		Details:   fmt.Sprintf("file: %s, error: %v", fileName, err),
		Retryable: true,
		Metadata:  map[string]interface{}{"file": fileName},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewSubmitInProgressError marks a dropped re-entrant submit trigger. It is
// never shown to the user.
func NewSubmitInProgressError(formType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitInProgress,
		Message:   "A submission is already in progress",
		Details:   fmt.Sprintf("formType: %s", formType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Submission document is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryableErrorCode reports whether re-submitting the same input can
// succeed.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeImageEncodeFailed
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "ENCODE"):
		return "ENCODING"
	case strings.Contains(codeStr, "IN_PROGRESS"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "PAYLOAD"):
		return "INPUT"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	default:
		return "OTHER"
	}
}

// FieldMessages extracts the field->message mapping carried by validation
// errors, or nil.
func FieldMessages(err *StandardError) map[string]string {
	if err == nil || err.Metadata == nil {
		return nil
	}
	fields, _ := err.Metadata["fields"].(map[string]string)
	return fields
}

func joinFields(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "fields: " + strings.Join(names, ", ")
}
