package model

import "strings"

type CreateCaseReq struct {
	Kind    Kind   `json:"kind" validate:"required,oneof=request officer_approval"`
	Title   string `json:"title" validate:"required,min=1,max=200"`
	Details string `json:"details" validate:"omitempty,max=4000"`
}

func (r *CreateCaseReq) Validate() error {
	r.Kind = Kind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.Title = strings.TrimSpace(r.Title)
	r.Details = strings.TrimSpace(r.Details)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
