package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

// Error carries the HTTP status and machine code a handler should answer with.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps the error taxonomy onto a status and code. An *Error
// anywhere in the chain wins.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, apperr.ErrInputRejected):
		return New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, apperr.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrServiceUnavailable):
		return New(http.StatusServiceUnavailable, "service_unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return New(http.StatusServiceUnavailable, "timeout", err)
	case errors.Is(err, apperr.ErrConfiguration):
		return New(http.StatusInternalServerError, "configuration_error", err)
	default:
		return New(http.StatusInternalServerError, "internal_error", err)
	}
}
