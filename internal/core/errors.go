package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can map them to responses.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindConfiguration
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is the error type returned by the services in this package.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

func NewValidationError(format string, args ...any) *Error {
	return newError(KindValidation, nil, format, args...)
}

func NewNotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

func NewConflictError(format string, args ...any) *Error {
	return newError(KindConflict, nil, format, args...)
}

func NewConfigurationError(format string, args ...any) *Error {
	return newError(KindConfiguration, nil, format, args...)
}

func NewUpstreamError(cause error, format string, args ...any) *Error {
	return newError(KindUpstream, cause, format, args...)
}

func NewInternalError(cause error, format string, args ...any) *Error {
	return newError(KindInternal, cause, format, args...)
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}
