// Package apperrors defines the typed errors returned by the service layer.
// Each error carries a string code so handlers can map it to an HTTP status
// without string matching on messages.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error condition. Codes are strings so they
// serialize naturally into API responses.
type ErrorCode string

const (
	// CodeNotFound indicates a requested record does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidInput indicates the caller supplied invalid data.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeConflict indicates a concurrent write collided and retries ran out.
	CodeConflict ErrorCode = "CONFLICT"

	// CodeUnauthorized indicates missing or wrong operator credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeDatabase indicates a storage operation failed.
	CodeDatabase ErrorCode = "DATABASE_ERROR"

	// CodeInternal indicates an unexpected failure.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code, so errors.Is(err, apperrors.NotFound("")) works for any
// not-found error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

func InvalidInput(message string) *Error {
	return New(CodeInvalidInput, message)
}

func Conflict(message string, err error) *Error {
	return Wrap(CodeConflict, message, err)
}

func Database(message string, err error) *Error {
	return Wrap(CodeDatabase, message, err)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps an error code to the response status used by the handlers.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
