package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the specified code and message.
// Use this for creating errors without an underlying cause.
//
// Example:
//
//	err := errors.New(errors.CodeValidation, "maps link must not be empty")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with the specified code and formatted message.
//
// Example:
//
//	err := errors.Newf(errors.CodeNotFoundPlace, "place %q not found", id)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context. The wrapped error
// becomes the Cause of the new error. If err is nil, Wrap returns nil.
//
// Example:
//
//	row := pool.QueryRow(ctx, sql, id)
//	if err := row.Scan(&place.ID); err != nil {
//	    return errors.Wrap(err, errors.CodeInternalDatabase, "failed to fetch place")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message.
// If err is nil, Wrapf returns nil.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a new validation error.
// This is a convenience function equivalent to New(CodeValidation, message).
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a new validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// NotFound creates a new not found error.
// This is a convenience function equivalent to New(CodeNotFound, message).
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a new not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Unauthorized creates a new authentication error.
// Use this when authentication fails for a reason without a dedicated code.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Internal creates a new internal error.
// Use this for unexpected system failures that should not expose details
// to users.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Unavailable creates a new service unavailable error.
// Use this when the database or identity provider is temporarily unreachable.
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// FromError converts a standard error to an *Error. If the error is already
// an *Error anywhere in its chain, that error is returned as-is. Otherwise
// it is wrapped as an internal error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
