// Package apperr defines the client-facing error taxonomy. Every failure that
// reaches a handler is either an *Error carrying a Kind, or is treated as
// Internal.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	BadRequest
	Unauthenticated
	InvalidToken
	TokenExpired
	NotFound
	Conflict
	GenerationFailed
)

var kindNames = map[Kind]string{
	Internal:         "internal_error",
	BadRequest:       "bad_request",
	Unauthenticated:  "unauthenticated",
	InvalidToken:     "invalid_token",
	TokenExpired:     "token_expired",
	NotFound:         "not_found",
	Conflict:         "conflict",
	GenerationFailed: "generation_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[Internal]
}

// Status returns the HTTP status code attached to the kind.
func (k Kind) Status() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthenticated, InvalidToken, TokenExpired:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// As extracts the *Error from err's chain. Errors without one are reported as
// Internal with a generic message; the original error is kept in Err.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(Internal, "Something went wrong on the server.", err)
}

func KindOf(err error) Kind {
	return As(err).Kind
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
