package lifecycle

import (
	"embed"
	"encoding/json"
	"fmt"
	"path/filepath"

	"caseportal/internal/portal/model"
)

//go:embed transitions/*.json
var transitionsFS embed.FS

// Assignment names the ledger operation a rule performs.
type Assignment string

const (
	AssignmentNone    Assignment = ""
	AssignmentClaim   Assignment = "claim"
	AssignmentRelease Assignment = "release"
)

// Rule describes one action of a kind's transition table.
type Rule struct {
	From           []model.Status `json:"from"`
	To             model.Status   `json:"to"`
	Role           model.Role     `json:"role"`
	AssigneeOnly   bool           `json:"assignee_only,omitempty"`
	ReasonRequired bool           `json:"reason_required,omitempty"`
	Assignment     Assignment     `json:"assignment,omitempty"`
	// Note selects the optional payload field stored as the decision reason
	// when ReasonRequired is false ("comment" or "reason").
	Note string `json:"note,omitempty"`
}

func (r *Rule) allowsFrom(s model.Status) bool {
	for _, f := range r.From {
		if f == s {
			return true
		}
	}
	return false
}

// Table is the transition table of one kind.
type Table struct {
	Kind    model.Kind             `json:"kind"`
	Actions map[model.Action]*Rule `json:"actions"`
}

// ActionNames lists the actions a table accepts.
func (t *Table) ActionNames() []model.Action {
	out := make([]model.Action, 0, len(t.Actions))
	for a := range t.Actions {
		out = append(out, a)
	}
	return out
}

// LoadTables reads and validates every embedded transition table.
func LoadTables() (map[model.Kind]*Table, error) {
	entries, err := transitionsFS.ReadDir("transitions")
	if err != nil {
		return nil, fmt.Errorf("failed to read transitions directory: %w", err)
	}

	tables := make(map[model.Kind]*Table)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := transitionsFS.ReadFile("transitions/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read transition file %s: %w", entry.Name(), err)
		}

		var table Table
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse transition file %s: %w", entry.Name(), err)
		}
		if err := table.validate(); err != nil {
			return nil, fmt.Errorf("invalid transition file %s: %w", entry.Name(), err)
		}
		if _, dup := tables[table.Kind]; dup {
			return nil, fmt.Errorf("duplicate transition table for kind %s", table.Kind)
		}
		tables[table.Kind] = &table
	}

	for _, k := range []model.Kind{model.KindRequest, model.KindOfficerApproval} {
		if _, ok := tables[k]; !ok {
			return nil, fmt.Errorf("missing transition table for kind %s", k)
		}
	}
	return tables, nil
}

func (t *Table) validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", t.Kind)
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("kind %s has no actions", t.Kind)
	}
	for name, r := range t.Actions {
		if r == nil {
			return fmt.Errorf("action %s: empty rule", name)
		}
		if !r.Role.Valid() {
			return fmt.Errorf("action %s: unknown role %q", name, r.Role)
		}
		if !model.HasStatus(t.Kind, r.To) {
			return fmt.Errorf("action %s: target %q not in %s vocabulary", name, r.To, t.Kind)
		}
		if len(r.From) == 0 {
			return fmt.Errorf("action %s: no source statuses", name)
		}
		for _, f := range r.From {
			if !model.HasStatus(t.Kind, f) {
				return fmt.Errorf("action %s: source %q not in %s vocabulary", name, f, t.Kind)
			}
			if model.IsTerminal(t.Kind, f) {
				return fmt.Errorf("action %s: source %q is terminal", name, f)
			}
		}
		switch r.Note {
		case "", "comment", "reason":
		default:
			return fmt.Errorf("action %s: unknown note field %q", name, r.Note)
		}

		// Assignment only exists for kinds with in-progress states.
		if (r.Assignment != AssignmentNone || r.AssigneeOnly) && !hasInProgress(t.Kind) {
			return fmt.Errorf("action %s: kind %s has no assignment", name, t.Kind)
		}
		switch r.Assignment {
		case AssignmentNone:
			if model.IsInProgress(t.Kind, r.To) && !r.AssigneeOnly {
				return fmt.Errorf("action %s: enters %s without holding the claim", name, r.To)
			}
		case AssignmentClaim:
			if !model.IsInProgress(t.Kind, r.To) {
				return fmt.Errorf("action %s: claim must enter an in-progress status", name)
			}
		case AssignmentRelease:
			if model.IsInProgress(t.Kind, r.To) || !r.AssigneeOnly {
				return fmt.Errorf("action %s: release must leave in-progress and be assignee-only", name)
			}
		default:
			return fmt.Errorf("action %s: unknown assignment %q", name, r.Assignment)
		}
	}
	return nil
}

func hasInProgress(kind model.Kind) bool {
	for _, s := range model.Statuses(kind) {
		if model.IsInProgress(kind, s) {
			return true
		}
	}
	return false
}
