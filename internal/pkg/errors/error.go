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
	if e.Err != nil && e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s: %v", e.Code, e.Message, e.Details, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this error
func (e *AppError) ExitCode() int {
	return GetExitCode(e.Code)
}

// New creates a new AppError with the given code
func New(code int, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Code:    code,
		Message: GetMessage(code),
		Details: detail,
	}
}

// Wrap wraps an existing error with an error code. An error that already
// carries an AppError keeps its original code.
func Wrap(err error, code int, details ...string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if len(details) > 0 && details[0] != "" {
			appErr.Details = details[0]
		}
		return appErr
	}

	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}

	return &AppError{
		Code:    code,
		Message: GetMessage(code),
		Err:     err,
		Details: detail,
	}
}

// Wrapf wraps an error with formatted details
func Wrapf(err error, code int, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
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
	if err == nil {
		return Success
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// ExitCodeOf maps any error to a process exit status. nil maps to ExitOK.
func ExitCodeOf(err error) int {
	return GetExitCode(ExtractCode(err))
}

// GetDetails extracts error details
func GetDetails(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return appErr.Details
		}
		if appErr.Err != nil {
			return appErr.Err.Error()
		}
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// NewConfigurationError reports bad local input detected before any network call
func NewConfigurationError(format string, args ...interface{}) *AppError {
	return New(ErrConfiguration, fmt.Sprintf(format, args...))
}

// NewValidationError wraps a structured rejection from the dump service
func NewValidationError(err error, details ...string) *AppError {
	return Wrap(err, ErrValidation, details...)
}

// NewAgencyResolverError wraps a failure to list all agencies
func NewAgencyResolverError(err error) *AppError {
	return Wrap(err, ErrAgencyResolver)
}

// NewTransportError wraps a network level failure
func NewTransportError(err error, details ...string) *AppError {
	return Wrap(err, ErrTransport, details...)
}

// NewUnexpectedStatusError reports a status the dump service should not return
func NewUnexpectedStatusError(status int, body string) *AppError {
	return New(ErrUnexpectedStatus, fmt.Sprintf("status %d: %s", status, body))
}

// NewIOError wraps a local read or write failure
func NewIOError(err error, details ...string) *AppError {
	return Wrap(err, ErrIO, details...)
}
