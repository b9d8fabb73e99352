package aggregates

import (
	"errors"
	"strings"
)

// ErrorCode classifies why an audit-domain operation failed. Handlers map it
// to an HTTP status; callers branch on it, never on messages.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeSystemBusy         ErrorCode = "system_busy"
	CodeInternal           ErrorCode = "internal"

	CodeResponseAlreadySubmitted ErrorCode = "response_already_submitted"
	CodeResponseNotRequired      ErrorCode = "response_not_required"
	CodeArchivalFailure          ErrorCode = "archival_failure"
	CodeReorderInProgress        ErrorCode = "reorder_in_progress"
	CodeDeleteInProgress         ErrorCode = "delete_in_progress"
)

// Transient reports whether repeating the same call later may succeed.
func (c ErrorCode) Transient() bool {
	switch c {
	case CodeRetryable, CodeRateLimited, CodeSystemBusy, CodeReorderInProgress, CodeDeleteInProgress:
		return true
	}
	return false
}

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

// Error renders "op: message (code)", dropping empty parts.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	head := e.Op
	if e.Message != "" {
		if head != "" {
			head += ": "
		}
		head += e.Message
	}
	if head == "" {
		return string(e.Code)
	}
	return head + " (" + string(e.Code) + ")"
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

// Wrap returns nil for a nil err.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode compares against the outermost code only.
func IsCode(err error, code ErrorCode) bool {
	return code != "" && CodeOf(err) == code
}

// HasCode looks through every *Error in the chain, so a system_busy that
// wraps a rate_limited matches both.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	for errors.As(err, &e) {
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}
