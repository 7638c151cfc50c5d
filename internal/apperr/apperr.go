// Package apperr carries the error classes the HTTP layer understands.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeInvalidState Code = "INVALID_STATE"
	CodeUnexpected   Code = "UNEXPECTED"
)

type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

// State conflicts are reported as 400, matching what clients of the
// storefront already handle.
var metadataByCode = map[Code]Metadata{
	CodeInvalidInput: {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid input"},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "authentication required"},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "access denied"},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeConflict:     {HTTPStatus: http.StatusBadRequest, PublicMessage: "state transition not allowed"},
	CodeInvalidState: {HTTPStatus: http.StatusBadRequest, PublicMessage: "resource is in an invalid state"},
	CodeUnexpected:   {HTTPStatus: http.StatusInternalServerError, PublicMessage: "server error"},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeUnexpected]
}

type Error struct {
	code    Code
	reason  string
	message string
	cause   error
}

func New(code Code, reason, message string) *Error {
	return &Error{code: code, reason: reason, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func InvalidInput(message string) *Error { return New(CodeInvalidInput, "", message) }
func NotFound(message string) *Error { return New(CodeNotFound, "", message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, "", message) }
func Forbidden(message string) *Error { return New(CodeForbidden, "", message) }

// Unexpected wraps an infrastructure failure. The cause is logged but never
// shown to clients.
func Unexpected(err error, message string) *Error {
	return Wrap(CodeUnexpected, err, message)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeUnexpected
	}
	return e.code
}

// Reason is a short machine-readable discriminator within a code, e.g.
// "AlreadyPaid" for a Conflict.
func (e *Error) Reason() string {
	if e == nil {
		return ""
	}
	return e.reason
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	if e.reason != "" {
		return fmt.Sprintf("%s(%s): %s", e.code, e.reason, e.message)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches errors of the same code and reason so callers can compare
// against exported sentinels even after the value was rebuilt.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.code == t.code && e.reason == t.reason && e.reason != ""
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf reports the class of any error; untyped errors are unexpected.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeUnexpected
}
