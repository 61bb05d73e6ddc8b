package model

import "strings"

// OpenSessionReq is sent by the authentication flow after it has verified the user.
// Role may be empty for principals whose role was never provisioned.
type OpenSessionReq struct {
	UserID string `json:"user_id" validate:"required,min=1,max=64"`
	Role   Role   `json:"role" validate:"omitempty,oneof=citizen officer chairman"`
}

func (r *OpenSessionReq) Validate() error {
	r.UserID = strings.TrimSpace(r.UserID)
	r.Role = Role(strings.ToLower(strings.TrimSpace(string(r.Role))))

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// OpenSessionResp carries the signed session token.
type OpenSessionResp struct {
	Token     string    `json:"token"`
	ExpiresAt string    `json:"expires_at"`
	Principal Principal `json:"principal"`
}
