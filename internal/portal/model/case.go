package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is wrapped by CheckWellFormed for every broken invariant.
var ErrMalformed = errors.New("malformed case")

// Decision is the verdict reached at a terminal transition. Set once, never overwritten.
type Decision struct {
	Outcome Outcome   `json:"outcome" bson:"outcome"`
	Reason  string    `json:"reason,omitempty" bson:"reason,omitempty"`
	ByID    string    `json:"by_id" bson:"by_id"`
	At      time.Time `json:"at" bson:"at"`
}

// HistoryEntry records one accepted transition.
type HistoryEntry struct {
	Action     Action    `json:"action" bson:"action"`
	ByID       string    `json:"by_id" bson:"by_id"`
	At         time.Time `json:"at" bson:"at"`
	FromStatus Status    `json:"from_status" bson:"from_status"`
	ToStatus   Status    `json:"to_status" bson:"to_status"`
}

// Case is the shared envelope for document requests and officer approval cases.
type Case struct {
	ID         string         `json:"id" bson:"_id"`
	Kind       Kind           `json:"kind" bson:"kind"`
	Status     Status         `json:"status" bson:"status"`
	OwnerID    string         `json:"owner_id" bson:"owner_id"`
	AssigneeID string         `json:"assignee_id,omitempty" bson:"assignee_id,omitempty"`
	AssignedAt *time.Time     `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	Decision   *Decision      `json:"decision,omitempty" bson:"decision,omitempty"`
	History    []HistoryEntry `json:"history" bson:"history"`

	Title   string `json:"title" bson:"title"`
	Details string `json:"details,omitempty" bson:"details,omitempty"`

	// Version is bumped on every persisted change and used for compare-and-set.
	Version   int64     `json:"version" bson:"version"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// Clone returns a deep copy so callers never share history or pointers.
func (c Case) Clone() Case {
	out := c
	if c.History != nil {
		out.History = make([]HistoryEntry, len(c.History))
		copy(out.History, c.History)
	}
	if c.Decision != nil {
		d := *c.Decision
		out.Decision = &d
	}
	if c.AssignedAt != nil {
		t := *c.AssignedAt
		out.AssignedAt = &t
	}
	return out
}

// IsTerminal reports whether the case has reached a terminal status.
func (c Case) IsTerminal() bool {
	return IsTerminal(c.Kind, c.Status)
}

// IsWellFormed reports whether c satisfies every structural invariant.
func IsWellFormed(c Case) bool {
	return CheckWellFormed(c) == nil
}

// CheckWellFormed returns an error wrapping ErrMalformed naming the first broken invariant.
func CheckWellFormed(c Case) error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is empty", ErrMalformed)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformed, c.Kind)
	}
	if c.OwnerID == "" {
		return fmt.Errorf("%w: owner_id is empty", ErrMalformed)
	}
	if !HasStatus(c.Kind, c.Status) {
		return fmt.Errorf("%w: status %q not valid for kind %s", ErrMalformed, c.Status, c.Kind)
	}

	inProgress := IsInProgress(c.Kind, c.Status)
	if inProgress && c.AssigneeID == "" {
		return fmt.Errorf("%w: status %s requires an assignee", ErrMalformed, c.Status)
	}
	if !inProgress && c.AssigneeID != "" {
		return fmt.Errorf("%w: status %s must not carry an assignee", ErrMalformed, c.Status)
	}

	outcome, terminal := TerminalOutcome(c.Kind, c.Status)
	if terminal && c.Decision == nil {
		return fmt.Errorf("%w: terminal status %s without decision", ErrMalformed, c.Status)
	}
	if !terminal && c.Decision != nil {
		return fmt.Errorf("%w: decision present on non-terminal status %s", ErrMalformed, c.Status)
	}
	if terminal && c.Decision.Outcome != outcome {
		return fmt.Errorf("%w: decision outcome %s disagrees with status %s", ErrMalformed, c.Decision.Outcome, c.Status)
	}
	if terminal && c.Decision.Outcome == OutcomeRejected && c.Decision.Reason == "" {
		return fmt.Errorf("%w: rejection without reason", ErrMalformed)
	}

	return checkHistory(c)
}

func checkHistory(c Case) error {
	expect := InitialStatus(c.Kind)
	for i, h := range c.History {
		if h.FromStatus != expect {
			return fmt.Errorf("%w: history[%d] starts at %s, expected %s", ErrMalformed, i, h.FromStatus, expect)
		}
		if !HasStatus(c.Kind, h.ToStatus) {
			return fmt.Errorf("%w: history[%d] ends at unknown status %s", ErrMalformed, i, h.ToStatus)
		}
		expect = h.ToStatus
	}
	if expect != c.Status {
		return fmt.Errorf("%w: history ends at %s but status is %s", ErrMalformed, expect, c.Status)
	}
	return nil
}
