// Package weberr attaches an HTTP status and a public message to handler
// errors. The wrapped error is logged, never sent to the client.
package weberr

import (
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error is a handler error with the response the client gets for it.
type Error struct {
	Err    error
	Status int
	Body   ErrorResponse

	// Log holds extra fields for the line the error is logged with.
	Log map[string]any
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

type Opt func(*Error)

func WithLog(fields map[string]any) Opt {
	return func(e *Error) {
		if e.Log == nil {
			e.Log = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			e.Log[k] = v
		}
	}
}

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &Error{Err: err, Status: status, Body: ErrorResponse{Error: msg}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// As finds the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the resource could not be found", http.StatusNotFound, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "not authorized to access resource", http.StatusUnauthorized, opts...)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(err, "bad request", http.StatusBadRequest, opts...)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(err, "you are not allowed to perform this action", http.StatusForbidden, opts...)
}

// Invalid rejects a payload with 422. When err lists the offending fields,
// as validate.Check errors do, they are sent along.
func Invalid(err error, opts ...Opt) error {
	e := &Error{Err: err, Status: http.StatusUnprocessableEntity, Body: ErrorResponse{Error: err.Error()}}

	var f interface{ Fields() map[string]string }
	if errors.As(err, &f) {
		e.Body.Fields = f.Fields()
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}
