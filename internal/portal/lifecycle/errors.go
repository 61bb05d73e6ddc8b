package lifecycle

import (
	"errors"
	"fmt"

	"caseportal/internal/portal/model"
)

// Code classifies a refused transition.
type Code string

const (
	CodeStructural        Code = "structural_error"
	CodeUnauthorized      Code = "unauthorized"
	CodeAlreadyAssigned   Code = "already_assigned"
	CodeMissingReason     Code = "missing_reason"
	CodeTerminalState     Code = "terminal_state_violation"
	CodeInvalidTransition Code = "invalid_transition"
	CodeUnknownAction     Code = "unknown_action"
)

// Error is returned by Apply for every expected domain refusal. The case
// passed to Apply is never modified when an Error is returned.
type Error struct {
	Code   Code
	Kind   model.Kind
	Action model.Action
	Status model.Status
	// Assignee is the current holder, set for CodeAlreadyAssigned.
	Assignee string
	Detail   string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s on %s case in status %s", e.Code, e.Action, e.Kind, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches on Code so callers can use errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrStructural        = &Error{Code: CodeStructural}
	ErrUnauthorized      = &Error{Code: CodeUnauthorized}
	ErrAlreadyAssigned   = &Error{Code: CodeAlreadyAssigned}
	ErrMissingReason     = &Error{Code: CodeMissingReason}
	ErrTerminalState     = &Error{Code: CodeTerminalState}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition}
	ErrUnknownAction     = &Error{Code: CodeUnknownAction}
)

// CodeOf returns the lifecycle code carried by err, or "" if err is not a lifecycle error.
func CodeOf(err error) Code {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func refuse(code Code, c model.Case, action model.Action, detail string) *Error {
	return &Error{
		Code:   code,
		Kind:   c.Kind,
		Action: action,
		Status: c.Status,
		Detail: detail,
	}
}
