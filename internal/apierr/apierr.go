// Package apierr defines the shared error taxonomy used across the gateway
// and maps each kind onto an HTTP status and an on-wire code, per spec §7.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one entry in the closed error taxonomy.
type Kind int

const (
	KindSessionNotFound Kind = iota
	KindSessionExists
	KindInvalidState
	KindNotExecutable
	KindPty
	KindIO
	KindExecutionFailed
	KindLockPoisoned
	KindChannelClosed
	KindParseError
	KindBadRequest
	KindTaskError
)

// Error is the taxonomy's concrete type. Handlers map it to a response via
// Status/Code; everything below internal/server is oblivious to HTTP.
type Error struct {
	Kind    Kind
	Message string
	Details string
	wrapped error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.wrapped }

// Status returns the HTTP status code this error kind maps onto.
func (e *Error) Status() int {
	switch e.Kind {
	case KindSessionNotFound:
		return http.StatusNotFound
	case KindSessionExists:
		return http.StatusConflict
	case KindInvalidState, KindNotExecutable:
		return http.StatusConflict
	case KindBadRequest, KindParseError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the on-wire string code for e.Kind.
func (e *Error) Code() string {
	switch e.Kind {
	case KindSessionNotFound:
		return "SESSION_NOT_FOUND"
	case KindSessionExists, KindInvalidState, KindNotExecutable:
		return "INVALID_STATE"
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindParseError:
		return "PARSE_ERROR"
	case KindExecutionFailed:
		return "EXECUTION_ERROR"
	case KindTaskError:
		return "TASK_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

func newErr(k Kind, msg string, wrapped error) *Error {
	e := &Error{Kind: k, Message: msg, wrapped: wrapped}
	if wrapped != nil {
		e.Details = wrapped.Error()
	}
	return e
}

func SessionNotFound(id string) *Error {
	return newErr(KindSessionNotFound, fmt.Sprintf("session %s not found", id), nil)
}

func SessionExists(id string) *Error {
	return newErr(KindSessionExists, fmt.Sprintf("session %s already exists", id), nil)
}

func NotExecutable(state string) *Error {
	return newErr(KindNotExecutable, fmt.Sprintf("session not executable in state %s", state), nil)
}

func InvalidStateTransition(from, to string) *Error {
	return newErr(KindInvalidState, fmt.Sprintf("cannot transition from %s to %s", from, to), nil)
}

func Pty(err error) *Error {
	return newErr(KindPty, "pty error", err)
}

func IO(err error) *Error {
	return newErr(KindIO, "io error", err)
}

func ExecutionFailed(msg string) *Error {
	return newErr(KindExecutionFailed, msg, nil)
}

func LockPoisoned() *Error {
	return newErr(KindLockPoisoned, "internal lock poisoned", nil)
}

func ChannelClosed() *Error {
	return newErr(KindChannelClosed, "channel closed", nil)
}

func ParseError(err error) *Error {
	return newErr(KindParseError, "failed to parse request", err)
}

func BadRequest(msg string) *Error {
	return newErr(KindBadRequest, msg, nil)
}

func TaskError(err error) *Error {
	return newErr(KindTaskError, "background task failed", err)
}

// As is a thin wrapper over errors.As for callers that only want the
// taxonomy type without importing errors directly.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
