package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/branchaudit-backend/internal/domain/aggregates"
)

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

func BadRequest(code string, err error) *Error {
	return New(http.StatusBadRequest, code, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

var aggregateStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:               http.StatusBadRequest,
	domainagg.CodeNotFound:                 http.StatusNotFound,
	domainagg.CodeConflict:                 http.StatusConflict,
	domainagg.CodeInvariantViolation:       http.StatusConflict,
	domainagg.CodePreconditionFailed:       http.StatusPreconditionFailed,
	domainagg.CodeRetryable:                http.StatusServiceUnavailable,
	domainagg.CodeRateLimited:              http.StatusTooManyRequests,
	domainagg.CodeSystemBusy:               http.StatusServiceUnavailable,
	domainagg.CodeResponseAlreadySubmitted: http.StatusConflict,
	domainagg.CodeResponseNotRequired:      http.StatusUnprocessableEntity,
	domainagg.CodeArchivalFailure:          http.StatusInternalServerError,
	domainagg.CodeReorderInProgress:        http.StatusConflict,
	domainagg.CodeDeleteInProgress:         http.StatusConflict,
	domainagg.CodeInternal:                 http.StatusInternalServerError,
}

// FromError converts any error into an *Error. Aggregate codes keep their
// name; anything unrecognised becomes a 500 "internal".
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	code := domainagg.CodeOf(err)
	if status, ok := aggregateStatus[code]; ok {
		return New(status, string(code), err)
	}
	return New(http.StatusInternalServerError, string(domainagg.CodeInternal), err)
}
