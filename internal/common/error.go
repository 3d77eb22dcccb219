// Package common defines the error taxonomy and small helpers shared by the
// ticket engine, its storage adapters and the entry points. Callers should use
// errors.Is against the sentinel values or CodeOf to branch on the kind.
package common

import (
	"errors"
	"fmt"
)

// Code identifies a member of the error taxonomy that crosses from the ticket
// engine into the entry points.
type Code string

const (
	CodeNotFound       Code = "MISSING_RECORD"
	CodeForbidden      Code = "MISSING_PERMISSION"
	CodeAuthentication Code = "INVALID_PASSWORD"
	CodeConfiguration  Code = "CONFIGURATION_ERROR"
	CodeValidation     Code = "INVALID_REQUEST"
	CodeInternal       Code = "INTERNAL_SERVER_ERROR"
)

// AppError carries a taxonomy code, a caller-safe message and the underlying cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, common.ErrNotFound) matches any not-found error.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	// Taxonomy sentinels.
	ErrNotFound       = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrForbidden      = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrAuthentication = &AppError{Code: CodeAuthentication, Message: "authentication failed"}
	ErrConfiguration  = &AppError{Code: CodeConfiguration, Message: "configuration error"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "invalid request"}
	ErrInternal       = &AppError{Code: CodeInternal, Message: "internal error"}

	// ErrPermissionDenied is returned (wrapped) by storage adapters when the
	// backing store rejects the caller's credentials or grants.
	ErrPermissionDenied = errors.New("permission denied")
)

// New builds an AppError without a cause.
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

// Wrap builds an AppError around cause.
func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func NotFound(msg string) error       { return New(CodeNotFound, msg) }
func Forbidden(msg string) error      { return New(CodeForbidden, msg) }
func Authentication(msg string) error { return New(CodeAuthentication, msg) }
func Validation(msg string) error     { return New(CodeValidation, msg) }

// CodeOf returns the taxonomy code carried by err. Errors outside the
// taxonomy are reported as CodeInternal.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// FromStore maps a storage adapter failure onto the taxonomy: permission
// denials become Forbidden, taxonomy errors pass through, anything else is
// Internal.
func FromStore(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, ErrPermissionDenied) {
		return Wrap(CodeForbidden, message, err)
	}
	return Wrap(CodeInternal, message, err)
}
