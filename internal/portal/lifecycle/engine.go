// Package lifecycle implements the case state machine shared by document
// requests and officer approval cases. Apply is pure: it takes a Case value
// and returns a new one, performing no I/O.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"caseportal/internal/portal/ledger"
	"caseportal/internal/portal/model"
)

// Payload carries the optional free text of an action.
type Payload struct {
	Reason  string
	Comment string
}

// Engine applies transitions according to per-kind tables.
type Engine struct {
	tables map[model.Kind]*Table
	Now    func() time.Time
}

// NewEngine creates an Engine from the embedded transition tables.
func NewEngine() (*Engine, error) {
	tables, err := LoadTables()
	if err != nil {
		return nil, fmt.Errorf("failed to load transition tables: %w", err)
	}
	return &Engine{tables: tables, Now: time.Now}, nil
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// Table returns the transition table for kind.
func (e *Engine) Table(kind model.Kind) (*Table, bool) {
	t, ok := e.tables[kind]
	return t, ok
}

// Apply validates action against c and actor and returns the resulting case.
//
// On refusal it returns c unchanged together with an *Error. A case that is
// already terminal yields CodeTerminalState for any action; callers treat that
// as a no-op success reporting the existing state.
func (e *Engine) Apply(c model.Case, action model.Action, actor model.Principal, payload Payload) (model.Case, error) {
	if err := model.CheckWellFormed(c); err != nil {
		return c, refuse(CodeStructural, c, action, err.Error())
	}
	if c.IsTerminal() {
		return c, refuse(CodeTerminalState, c, action, "case already "+string(c.Status))
	}

	table, ok := e.tables[c.Kind]
	if !ok {
		return c, refuse(CodeStructural, c, action, "no transition table")
	}
	rule, ok := table.Actions[action]
	if !ok {
		return c, refuse(CodeUnknownAction, c, action, "")
	}

	if !actor.Authenticated() {
		return c, refuse(CodeUnauthorized, c, action, "no valid session")
	}
	if actor.Role != rule.Role {
		return c, refuse(CodeUnauthorized, c, action, "requires role "+string(rule.Role))
	}

	at := e.now()
	next := c.Clone()

	switch {
	case rule.Assignment == AssignmentClaim:
		claimed, err := ledger.Claim(next, actor.ID, at)
		if err != nil {
			return c, fromLedger(err, c, action)
		}
		next = claimed
	case rule.AssigneeOnly:
		if err := ledger.CheckHolder(next, actor.ID); err != nil {
			return c, fromLedger(err, c, action)
		}
	}

	if !rule.allowsFrom(c.Status) {
		return c, refuse(CodeInvalidTransition, c, action, "not allowed from "+string(c.Status))
	}

	reason := strings.TrimSpace(payload.Reason)
	if rule.ReasonRequired && reason == "" {
		return c, refuse(CodeMissingReason, c, action, "a reason is required")
	}

	if rule.Assignment == AssignmentRelease {
		released, err := ledger.Release(next, actor.ID)
		if err != nil {
			return c, fromLedger(err, c, action)
		}
		next = released
	}

	next.Status = rule.To
	if outcome, terminal := model.TerminalOutcome(next.Kind, next.Status); terminal {
		next = ledger.Settle(next)
		next.Decision = &model.Decision{
			Outcome: outcome,
			Reason:  decisionNote(rule, reason, payload.Comment),
			ByID:    actor.ID,
			At:      at,
		}
	}

	next.History = append(next.History, model.HistoryEntry{
		Action:     action,
		ByID:       actor.ID,
		At:         at,
		FromStatus: c.Status,
		ToStatus:   next.Status,
	})
	next.UpdatedAt = at
	next.UpdatedBy = actor.ID

	if err := model.CheckWellFormed(next); err != nil {
		// The tables produced an invalid case; refuse rather than hand it to persistence.
		return c, refuse(CodeStructural, c, action, err.Error())
	}
	return next, nil
}

func decisionNote(rule *Rule, reason, comment string) string {
	if rule.ReasonRequired {
		return reason
	}
	switch rule.Note {
	case "comment":
		return strings.TrimSpace(comment)
	case "reason":
		return reason
	}
	return ""
}

func fromLedger(err error, c model.Case, action model.Action) *Error {
	var held *ledger.HeldError
	holder := ""
	if errors.As(err, &held) {
		holder = held.Holder
	}

	switch {
	case errors.Is(err, ledger.ErrAlreadyAssigned):
		le := refuse(CodeAlreadyAssigned, c, action, "held by "+holder)
		le.Assignee = holder
		return le
	case errors.Is(err, ledger.ErrAlreadyHolder):
		return refuse(CodeInvalidTransition, c, action, "already claimed by this officer")
	case errors.Is(err, ledger.ErrNotHolder):
		return refuse(CodeUnauthorized, c, action, "only the assignee may act")
	case errors.Is(err, ledger.ErrNotAssignable):
		return refuse(CodeInvalidTransition, c, action, "kind has no assignment")
	}
	return refuse(CodeStructural, c, action, err.Error())
}
