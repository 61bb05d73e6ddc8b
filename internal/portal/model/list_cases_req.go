package model

import "strings"

type ListCasesReq struct {
	Kind       Kind   `query:"kind" validate:"omitempty,oneof=request officer_approval"`
	Status     Status `query:"status" validate:"omitempty,max=50"`
	OwnerID    string `query:"owner_id" validate:"omitempty,max=64"`
	AssigneeID string `query:"assignee_id" validate:"omitempty,max=64"`

	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=500"`
}

func (r *ListCasesReq) Validate() error {
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.Status = Status(strings.ToLower(strings.TrimSpace(string(r.Status))))
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.AssigneeID = strings.TrimSpace(r.AssigneeID)

	if r.Page <= 0 {
		r.Page = 1
	}
	if r.Size <= 0 {
		r.Size = 50
	}
	if r.Size > 500 {
		r.Size = 500
	}

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if r.Status != "" && r.Kind != "" && !HasStatus(r.Kind, r.Status) {
		return badRequest("status " + string(r.Status) + " is not valid for kind " + string(r.Kind))
	}
	if r.Status != "" && r.Kind == "" && !HasStatus(KindRequest, r.Status) && !HasStatus(KindOfficerApproval, r.Status) {
		return badRequest("unknown status " + string(r.Status))
	}
	return nil
}

// Filter converts the request into a repository filter.
func (r *ListCasesReq) Filter() CaseFilter {
	return CaseFilter{
		Kind:       r.Kind,
		Status:     r.Status,
		OwnerID:    r.OwnerID,
		AssigneeID: r.AssigneeID,
		Page:       r.Page,
		Size:       r.Size,
	}
}
