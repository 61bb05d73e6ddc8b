// Package guard decides, for each navigation, whether the session may render
// the destination. It never fails: every call returns a Decision.
package guard

import "caseportal/internal/portal/model"

// Outcome of a navigation evaluation. Only OutcomeAllow renders the destination.
type Outcome string

const (
	OutcomeAllow              Outcome = "allow"
	OutcomeRedirectToLogin    Outcome = "redirect_to_login"
	OutcomeRedirectToRoleHome Outcome = "redirect_to_role_home"
)

// MaxRedirects bounds consecutive guard-issued redirects in one navigation chain.
const MaxRedirects = 2

// Homes holds the landing paths the guard redirects to.
type Homes struct {
	Login    string
	Citizen  string
	Officer  string
	Chairman string
}

// DefaultHomes are used for any empty field of the configured Homes.
var DefaultHomes = Homes{
	Login:    "/login",
	Citizen:  "/citizen",
	Officer:  "/officer",
	Chairman: "/chairman",
}

// Policy switches the two role special cases. The zero value is strict.
type Policy struct {
	ChairmanSuperuser     bool
	DefaultEmptyToCitizen bool
}

// Decision is the result of Evaluate.
type Decision struct {
	Outcome Outcome `json:"decision"`
	// Location is the redirect target; empty on allow.
	Location string `json:"location,omitempty"`
	// ReturnTo is the originally requested path, set on redirect to login.
	ReturnTo string `json:"return_to,omitempty"`
	// VisitCount must be threaded into the next evaluation of this chain.
	VisitCount int  `json:"visit_count"`
	LoopBroken bool `json:"loop_broken,omitempty"`
	// RoleDefaulted is set when the empty role was corrected to citizen;
	// Principal then holds the corrected value for the session store.
	RoleDefaulted bool             `json:"role_defaulted,omitempty"`
	Principal     *model.Principal `json:"-"`
}

// Guard evaluates navigations.
type Guard struct {
	homes  Homes
	policy Policy
}

// New creates a Guard. Empty home paths fall back to DefaultHomes.
func New(homes Homes, policy Policy) *Guard {
	if homes.Login == "" {
		homes.Login = DefaultHomes.Login
	}
	if homes.Citizen == "" {
		homes.Citizen = DefaultHomes.Citizen
	}
	if homes.Officer == "" {
		homes.Officer = DefaultHomes.Officer
	}
	if homes.Chairman == "" {
		homes.Chairman = DefaultHomes.Chairman
	}
	return &Guard{homes: homes, policy: policy}
}

// NewDefault creates a Guard with default homes and both special cases enabled.
func NewDefault() *Guard {
	return New(DefaultHomes, Policy{ChairmanSuperuser: true, DefaultEmptyToCitizen: true})
}

// RoleHome returns the landing path of role; unknown or empty roles land on the citizen home.
func (g *Guard) RoleHome(role model.Role) string {
	switch role {
	case model.RoleOfficer:
		return g.homes.Officer
	case model.RoleChairman:
		return g.homes.Chairman
	default:
		return g.homes.Citizen
	}
}

// Evaluate decides whether p may render path, which declares requiredRole
// (RoleNone for any authenticated principal). visitCount is the count carried
// by the incoming navigation, 0 when absent.
func (g *Guard) Evaluate(p *model.Principal, requiredRole model.Role, path string, visitCount int) Decision {
	if visitCount < 0 {
		visitCount = 0
	}

	if !p.Authenticated() {
		return Decision{Outcome: OutcomeRedirectToLogin, Location: g.homes.Login, ReturnTo: path}
	}

	if requiredRole == model.RoleNone || p.Role == requiredRole {
		return Decision{Outcome: OutcomeAllow}
	}

	if g.policy.ChairmanSuperuser && p.Role == model.RoleChairman {
		return Decision{Outcome: OutcomeAllow}
	}

	if g.policy.DefaultEmptyToCitizen && requiredRole == model.RoleCitizen &&
		p.Role == model.RoleNone && !p.RoleDefaulted {
		corrected := *p
		corrected.Role = model.RoleCitizen
		corrected.RoleDefaulted = true
		return Decision{Outcome: OutcomeAllow, RoleDefaulted: true, Principal: &corrected}
	}

	if visitCount >= MaxRedirects {
		return Decision{Outcome: OutcomeAllow, VisitCount: visitCount, LoopBroken: true}
	}

	return Decision{
		Outcome:    OutcomeRedirectToRoleHome,
		Location:   g.RoleHome(p.Role),
		VisitCount: visitCount + 1,
	}
}
