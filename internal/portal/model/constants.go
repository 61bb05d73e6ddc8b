package model

// Role is the role carried by a Principal.
type Role string

// Roles
const (
	RoleNone     Role = ""
	RoleCitizen  Role = "citizen"
	RoleOfficer  Role = "officer"
	RoleChairman Role = "chairman"
)

// Valid reports whether r is one of the known roles. RoleNone is not valid.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleChairman:
		return true
	}
	return false
}

// Kind discriminates the two case flavours sharing the Case envelope.
type Kind string

// Case kinds
const (
	KindRequest         Kind = "request"
	KindOfficerApproval Kind = "officer_approval"
)

func (k Kind) Valid() bool {
	return k == KindRequest || k == KindOfficerApproval
}

// Status is a lifecycle state. Each Kind has its own closed vocabulary.
type Status string

// Request statuses
const (
	StatusSubmitted  Status = "submitted"
	StatusAssigned   Status = "assigned"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Officer approval statuses
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// StatusRejected is terminal for both kinds.
const StatusRejected Status = "rejected"

// Action is a lifecycle transition request.
type Action string

// Request actions
const (
	ActionClaim           Action = "claim"
	ActionBeginProcessing Action = "begin_processing"
	ActionComplete        Action = "complete"
	ActionRelease         Action = "release"
)

// Officer approval actions
const (
	ActionApprove Action = "approve"
)

// ActionReject is shared by both kinds.
const ActionReject Action = "reject"

// Outcome is the verdict recorded in a Decision.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeRejected Outcome = "rejected"
)

// vocabularies lists the closed status set per kind, initial state first.
var vocabularies = map[Kind][]Status{
	KindRequest:         {StatusSubmitted, StatusAssigned, StatusProcessing, StatusCompleted, StatusRejected},
	KindOfficerApproval: {StatusPending, StatusApproved, StatusRejected},
}

var terminalStatuses = map[Kind]map[Status]Outcome{
	KindRequest: {
		StatusCompleted: OutcomeApproved,
		StatusRejected:  OutcomeRejected,
	},
	KindOfficerApproval: {
		StatusApproved: OutcomeApproved,
		StatusRejected: OutcomeRejected,
	},
}

var inProgressStatuses = map[Kind]map[Status]bool{
	KindRequest: {
		StatusAssigned:   true,
		StatusProcessing: true,
	},
	KindOfficerApproval: {},
}

// Statuses returns the status vocabulary of kind, initial state first.
func Statuses(kind Kind) []Status {
	out := make([]Status, len(vocabularies[kind]))
	copy(out, vocabularies[kind])
	return out
}

// InitialStatus returns the status a new case of kind starts in.
func InitialStatus(kind Kind) Status {
	v := vocabularies[kind]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// HasStatus reports whether s belongs to kind's vocabulary.
func HasStatus(kind Kind, s Status) bool {
	for _, v := range vocabularies[kind] {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is terminal for kind.
func IsTerminal(kind Kind, s Status) bool {
	_, ok := terminalStatuses[kind][s]
	return ok
}

// TerminalOutcome returns the decision outcome implied by a terminal status.
func TerminalOutcome(kind Kind, s Status) (Outcome, bool) {
	o, ok := terminalStatuses[kind][s]
	return o, ok
}

// IsInProgress reports whether s is a claimed state requiring an assignee.
func IsInProgress(kind Kind, s Status) bool {
	return inProgressStatuses[kind][s]
}
