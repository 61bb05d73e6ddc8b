package model

import "strings"

// EvaluateNavigationReq asks the access guard whether the session may render Path.
// RequiredRole is optional; when empty the route table is consulted.
type EvaluateNavigationReq struct {
	Path         string `json:"path" validate:"required,startswith=/,max=512"`
	RequiredRole Role   `json:"required_role" validate:"omitempty,oneof=citizen officer chairman"`
	VisitCount   int    `json:"visit_count" validate:"min=0"`
}

func (r *EvaluateNavigationReq) Validate() error {
	r.Path = strings.TrimSpace(r.Path)
	r.RequiredRole = Role(strings.ToLower(strings.TrimSpace(string(r.RequiredRole))))

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}
