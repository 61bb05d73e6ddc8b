// Package ledger owns the assignee of a case. It enforces that at most one
// officer holds a claim at a time; every change to AssigneeID goes through here.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"caseportal/internal/portal/model"
)

var (
	// ErrAlreadyAssigned means another officer holds the claim.
	ErrAlreadyAssigned = errors.New("case already assigned")
	// ErrAlreadyHolder means the claimant already holds the claim.
	ErrAlreadyHolder = errors.New("officer already holds the claim")
	// ErrNotHolder means the actor is not the recorded assignee.
	ErrNotHolder = errors.New("officer does not hold the claim")
	// ErrNotAssignable means the case kind has no assignment concept.
	ErrNotAssignable = errors.New("case kind does not support assignment")
)

// HeldError reports who currently holds a claim.
type HeldError struct {
	Holder string
	err    error
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%v (held by %s)", e.err, e.Holder)
}

func (e *HeldError) Unwrap() error { return e.err }

// Assignable reports whether kind participates in assignment.
func Assignable(kind model.Kind) bool {
	for _, s := range model.Statuses(kind) {
		if model.IsInProgress(kind, s) {
			return true
		}
	}
	return false
}

// Holder returns the officer holding the claim on c, if any.
func Holder(c model.Case) (string, bool) {
	return c.AssigneeID, c.AssigneeID != ""
}

// Claim is a compare-and-set on the assignee: it succeeds only when nobody
// holds the case. First claim wins; there is no queueing.
func Claim(c model.Case, officerID string, at time.Time) (model.Case, error) {
	if !Assignable(c.Kind) {
		return c, ErrNotAssignable
	}
	switch holder := c.AssigneeID; {
	case holder == "":
	case holder == officerID:
		return c, &HeldError{Holder: holder, err: ErrAlreadyHolder}
	default:
		return c, &HeldError{Holder: holder, err: ErrAlreadyAssigned}
	}

	out := c.Clone()
	out.AssigneeID = officerID
	t := at.UTC()
	out.AssignedAt = &t
	return out, nil
}

// CheckHolder verifies that officerID holds the claim on c.
func CheckHolder(c model.Case, officerID string) error {
	if !Assignable(c.Kind) {
		return ErrNotAssignable
	}
	if c.AssigneeID == "" || c.AssigneeID != officerID {
		return &HeldError{Holder: c.AssigneeID, err: ErrNotHolder}
	}
	return nil
}

// Release hands the case back; only the holder may release.
func Release(c model.Case, officerID string) (model.Case, error) {
	if err := CheckHolder(c, officerID); err != nil {
		return c, err
	}
	return vacate(c), nil
}

// Settle clears the claim once a case leaves the in-progress states through
// resolution. The resolving officer is kept in the decision and history.
func Settle(c model.Case) model.Case {
	if c.AssigneeID == "" && c.AssignedAt == nil {
		return c
	}
	return vacate(c)
}

func vacate(c model.Case) model.Case {
	out := c.Clone()
	out.AssigneeID = ""
	out.AssignedAt = nil
	return out
}
