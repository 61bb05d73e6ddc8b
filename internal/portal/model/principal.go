package model

// Principal is the authenticated actor behind a session.
type Principal struct {
	ID           string `json:"id"`
	Role         Role   `json:"role"`
	SessionValid bool   `json:"session_valid"`
	// RoleDefaulted is set once the empty role has been corrected to citizen.
	RoleDefaulted bool `json:"role_defaulted,omitempty"`
}

// Authenticated reports whether p is present and its session is still valid.
func (p *Principal) Authenticated() bool {
	return p != nil && p.ID != "" && p.SessionValid
}
