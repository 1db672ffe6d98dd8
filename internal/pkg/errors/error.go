package errors

import (
	"errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    int    // Business error code
	Message string // Human-readable message
	Err     error  // Underlying error (if any)
	Details string // Additional details
}

// Error implements the error interface
func (e *AppError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	case e.Details != "":
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	default:
		return fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error
func (e *AppError) HTTPStatus() int {
	return GetHTTPStatus(e.Code)
}

// New creates an AppError with the code's default message
func New(code int, details ...string) *AppError {
	return &AppError{
		Code:    code,
		Message: GetMessage(code),
		Details: firstOf(details),
	}
}

// Newf creates an AppError whose user-facing message replaces the default
func Newf(code int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps err with a code; an existing AppError keeps its code
func Wrap(err error, code int, details ...string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if d := firstOf(details); d != "" {
			appErr.Details = d
		}
		return appErr
	}

	return &AppError{
		Code:    code,
		Message: GetMessage(code),
		Err:     err,
		Details: firstOf(details),
	}
}

// WithMessage wraps err with a code and a user-facing message
func WithMessage(err error, code int, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Is checks if err is an AppError with the given code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ExtractCode extracts the error code from an error
func ExtractCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalServer
}

// UserMessage returns the text safe to show a client. Underlying errors are
// never included, only the AppError message and its details.
func UserMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return GetMessage(ErrInternalServer)
	}
	if appErr.Details != "" {
		return fmt.Sprintf("%s: %s", appErr.Message, appErr.Details)
	}
	return appErr.Message
}

func firstOf(details []string) string {
	if len(details) > 0 {
		return details[0]
	}
	return ""
}
