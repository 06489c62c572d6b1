package domain

import (
	"errors"
	"net/http"
)

// ErrDuplicate is returned by stores when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// Error is a failure meant for the client. Code is the HTTP status it maps to;
// Err, when set, is logged but never sent.
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func Conflict(msg string) error     { return &Error{Code: http.StatusConflict, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &Error{Code: http.StatusNotFound, Msg: msg} }
func BadRequest(msg string) error   { return &Error{Code: http.StatusBadRequest, Msg: msg} }
func Validation(msg string) error   { return &Error{Code: http.StatusUnprocessableEntity, Msg: msg} }

func BadGateway(msg string, err error) error {
	return &Error{Code: http.StatusBadGateway, Msg: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}
