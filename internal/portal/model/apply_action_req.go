package model

import "strings"

// ApplyActionReq is the body of POST /cases/:id/actions.
type ApplyActionReq struct {
	CaseID  string `param:"id" validate:"required,max=64"`
	Action  Action `json:"action" validate:"required,max=50"`
	Reason  string `json:"reason" validate:"omitempty,max=2000"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func (r *ApplyActionReq) Validate() error {
	r.CaseID = strings.TrimSpace(r.CaseID)
	r.Action = Action(strings.ToLower(strings.TrimSpace(string(r.Action))))
	// Reason is not defaulted: a blank reason must reach the lifecycle engine as blank.
	r.Reason = strings.TrimSpace(r.Reason)
	r.Comment = strings.TrimSpace(r.Comment)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
