// Package errs defines the error taxonomy shared by every domain operation.
//
// Each failure carries a Kind. Callers branch with errors.Is against the
// kind sentinels (ErrNotFound, ErrConflict, ...) or against specific
// values such as a package's "document locked" conflict. The HTTP boundary
// translates kinds to status codes with HTTPStatus.
package errs

import (
	"errors"
	"net/http"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindStorage
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// Error is a classified failure with an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches kind sentinels: a target carrying only a Kind matches any
// error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// Kind sentinels for use with errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrStorage     = &Error{Kind: KindStorage}
	ErrPersistence = &Error{Kind: KindPersistence}
)

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Storage(msg string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Cause: cause}
}

func Persistence(msg string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Persist classifies an unclassified store failure as a persistence error.
// Errors that already carry a kind are returned unchanged.
func Persist(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Persistence("store operation failed", err)
}

// HTTPStatus maps err to the response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindStorage:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
