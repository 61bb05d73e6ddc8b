package model

// Error codes used in ErrorDetail.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeConflict      = "conflict"
	CodeInternalError = "internal_error"
)

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	// Assignee is the current holder when a claim was lost.
	Assignee string `json:"assignee,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Code + ": " + e.Message
}

// CaseFilter narrows ListCases. Empty fields do not filter.
type CaseFilter struct {
	Kind       Kind
	Status     Status
	OwnerID    string
	AssigneeID string
	Visibility *Visibility
	Page       int
	Size       int
}

// Visibility limits what one viewer may read: cases of any of Kinds, plus
// cases owned by OwnerID. A nil Visibility sees everything.
type Visibility struct {
	Kinds   []Kind
	OwnerID string
}

// Allows reports whether c is visible. Nil receivers allow everything.
func (v *Visibility) Allows(c *Case) bool {
	if v == nil {
		return true
	}
	if v.OwnerID != "" && c.OwnerID == v.OwnerID {
		return true
	}
	for _, k := range v.Kinds {
		if c.Kind == k {
			return true
		}
	}
	return false
}

// VisibilityFor returns what p may read: citizens their own cases, officers
// every request plus their own cases, the chairman everything.
func VisibilityFor(p *Principal) *Visibility {
	switch p.Role {
	case RoleChairman:
		return nil
	case RoleOfficer:
		return &Visibility{Kinds: []Kind{KindRequest}, OwnerID: p.ID}
	default:
		return &Visibility{OwnerID: p.ID}
	}
}

// CaseListResp is a page of cases.
type CaseListResp struct {
	Data       []*Case `json:"data"`
	Page       int     `json:"page"`
	Size       int     `json:"size"`
	TotalCount int64   `json:"total_count"`
}

// ActionResp is returned by the action endpoint. Noop is true when the case
// was already terminal and nothing changed.
type ActionResp struct {
	Case *Case  `json:"case"`
	Noop bool   `json:"noop"`
	Code string `json:"code,omitempty"`
}
