// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
)

// ErrorHandler turns pipeline failures into StandardErrors and logs them once.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleSubmitError normalizes err and logs it. Validation and re-entrancy
// codes are expected outcomes and log at warn level.
func (h *ErrorHandler) HandleSubmitError(ctx context.Context, formType string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)

	fields := map[string]interface{}{
		"formType":      formType,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		fields["contextError"] = ctxErr.Error()
	}

	switch GetErrorCategory(stdErr.Code) {
	case "VALIDATION", "CONCURRENCY":
		h.logger.Warn("Submission rejected", fields)
	default:
		h.logger.Error("Submission failed", fields)
	}
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}
