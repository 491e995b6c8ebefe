package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"ephysval/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. The code of a wrapped
// AppError is preserved; domain sentinels are mapped to their code.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    codeOf(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code of err, mapping domain errors when err is
// not an AppError.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	return codeOf(err)
}

func codeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	switch {
	case stderrors.Is(err, core.ErrObservation):
		return CodeObservationError
	case stderrors.Is(err, core.ErrContractViolation):
		return CodeContractViolation
	case stderrors.Is(err, core.ErrUndefinedStatistic):
		return CodeUndefinedStatistic
	case stderrors.Is(err, core.ErrModelExecution):
		return CodeModelExecution
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeObservationError   = "OBSERVATION_ERROR"
	CodeContractViolation  = "CONTRACT_VIOLATION"
	CodeUndefinedStatistic = "UNDEFINED_STATISTIC"
	CodeModelExecution     = "MODEL_EXECUTION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// HTTPStatus maps an error code to the status returned by the API.
func HTTPStatus(code string) int {
	switch code {
	case CodeObservationError, CodeUndefinedStatistic:
		return http.StatusUnprocessableEntity
	case CodeContractViolation:
		return http.StatusConflict
	case CodeModelExecution:
		return http.StatusBadGateway
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}
