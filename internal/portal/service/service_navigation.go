package service

import (
	"context"

	"caseportal/internal/portal/guard"
	"caseportal/internal/portal/model"
	"caseportal/internal/portal/util"
)

// EvaluateNavigation answers the guard decision for one navigation. When the
// request names no role the route table supplies it. A one-time role
// correction is written back to the session store; failing to persist it is
// logged and does not change the decision.
func (s *Service) EvaluateNavigation(ctx context.Context, sessionID string, p *model.Principal, req model.EvaluateNavigationReq) (*guard.Decision, error) {
	required := req.RequiredRole
	if required == model.RoleNone {
		required = s.Routes.RequiredRole(req.Path)
	}

	d := s.Guard.Evaluate(p, required, req.Path, req.VisitCount)
	s.Metrics.ObserveGuard(string(d.Outcome))

	log := util.GetLogger()
	if d.RoleDefaulted && d.Principal != nil && sessionID != "" && s.Sessions != nil {
		if err := s.Sessions.Update(ctx, sessionID, *d.Principal); err != nil {
			log.Warn("failed to persist role correction", "principal_id", d.Principal.ID, "error", err)
		} else {
			log.Info("Audit: empty role defaulted to citizen", "principal_id", d.Principal.ID)
		}
	}
	if d.LoopBroken {
		log.Warn("redirect loop broken", "path", req.Path, "required_role", required, "role", p.Role, "visit_count", d.VisitCount)
	}
	return &d, nil
}
