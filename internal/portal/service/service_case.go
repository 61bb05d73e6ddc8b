package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseportal/internal/portal/lifecycle"
	"caseportal/internal/portal/metrics"
	"caseportal/internal/portal/model"
	"caseportal/internal/portal/repository"
	"caseportal/internal/portal/util"

	"github.com/google/uuid"
)

// CreateCase opens a document request (citizens only) or an officer approval
// case (any signed-in principal) owned by p.
func (s *Service) CreateCase(ctx context.Context, p *model.Principal, req model.CreateCaseReq) (*model.Case, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if req.Kind == model.KindRequest && p.Role != model.RoleCitizen {
		return nil, ErrForbidden
	}

	now := s.now()
	c := &model.Case{
		ID:        uuid.NewString(),
		Kind:      req.Kind,
		Status:    model.InitialStatus(req.Kind),
		OwnerID:   p.ID,
		History:   []model.HistoryEntry{},
		Title:     req.Title,
		Details:   req.Details,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: p.ID,
	}
	if err := model.CheckWellFormed(*c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	if err := s.Cases.CreateCase(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	util.GetLogger().Info("Audit: case created", "case_id", c.ID, "kind", c.Kind, "owner_id", c.OwnerID)
	return c, nil
}

func (s *Service) GetCase(ctx context.Context, p *model.Principal, id string) (*model.Case, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	return s.loadVisible(ctx, p, id)
}

func (s *Service) ListCases(ctx context.Context, p *model.Principal, req model.ListCasesReq) (*model.CaseListResp, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	filter := req.Filter()
	filter.Visibility = model.VisibilityFor(p)

	data, total, err := s.Cases.ListCases(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.CaseListResp{
		Data:       data,
		Page:       req.Page,
		Size:       req.Size,
		TotalCount: total,
	}, nil
}

// ApplyAction runs one lifecycle transition and persists it with
// compare-and-set on the case version.
//
// A terminal case answers with Noop=true and the stored case. When the save
// loses a race the action is re-evaluated against the fresh copy: a refusal
// there (AlreadyAssigned for a lost claim) is returned as the result, anything
// else is ErrConflict and left to the caller to retry.
func (s *Service) ApplyAction(ctx context.Context, p *model.Principal, req model.ApplyActionReq) (*model.ActionResp, error) {
	defer s.Metrics.ObserveAction(time.Now())

	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	current, err := s.loadVisible(ctx, p, req.CaseID)
	if err != nil {
		return nil, err
	}

	payload := lifecycle.Payload{Reason: req.Reason, Comment: req.Comment}
	next, err := s.Engine.Apply(*current, req.Action, *p, payload)
	if err != nil {
		return s.refused(current, req, p, err)
	}

	saveErr := s.Cases.SaveCase(ctx, &next, current.Version)
	if saveErr == nil {
		s.accepted(current, &next, req, p)
		return &model.ActionResp{Case: &next}, nil
	}
	if !errors.Is(saveErr, repository.ErrVersionConflict) {
		if errors.Is(saveErr, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, saveErr
	}

	fresh, err := s.Cases.LoadCase(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Engine.Apply(*fresh, req.Action, *p, payload); err != nil {
		if lifecycle.CodeOf(err) == lifecycle.CodeAlreadyAssigned {
			s.Metrics.IncrementClaimConflict()
		}
		return s.refused(fresh, req, p, err)
	}
	util.GetLogger().Warn("case changed concurrently", "case_id", req.CaseID, "action", req.Action, "actor_id", p.ID)
	return nil, ErrConflict
}

func (s *Service) accepted(before, after *model.Case, req model.ApplyActionReq, p *model.Principal) {
	s.Metrics.ObserveTransition(string(after.Kind), s.actionLabel(after.Kind, req.Action), model.AuditAccepted)
	s.recordAudit(&model.CaseAudit{
		CaseID:     after.ID,
		Kind:       after.Kind,
		Action:     req.Action,
		ActorID:    p.ID,
		ActorRole:  p.Role,
		FromStatus: before.Status,
		ToStatus:   after.Status,
		Result:     model.AuditAccepted,
		Reason:     auditReason(req),
	})
	util.GetLogger().Info("Audit: case transition",
		"case_id", after.ID,
		"kind", after.Kind,
		"action", req.Action,
		"actor_id", p.ID,
		"from", before.Status,
		"to", after.Status,
	)
}

// actionLabel bounds the action metric label to the kind's declared actions.
func (s *Service) actionLabel(kind model.Kind, action model.Action) string {
	if t, ok := s.Engine.Table(kind); ok {
		if _, declared := t.Actions[action]; declared {
			return string(action)
		}
	}
	return metrics.UnknownAction
}

// refused records a refused attempt. Terminal-state refusals become a no-op
// response; all other lifecycle errors are returned.
func (s *Service) refused(c *model.Case, req model.ApplyActionReq, p *model.Principal, err error) (*model.ActionResp, error) {
	code := lifecycle.CodeOf(err)
	if code == "" {
		return nil, err
	}

	result := string(code)
	if code == lifecycle.CodeTerminalState {
		result = model.AuditNoop
	}
	s.Metrics.ObserveTransition(string(c.Kind), s.actionLabel(c.Kind, req.Action), result)
	s.recordAudit(&model.CaseAudit{
		CaseID:     c.ID,
		Kind:       c.Kind,
		Action:     req.Action,
		ActorID:    p.ID,
		ActorRole:  p.Role,
		FromStatus: c.Status,
		Result:     result,
		Reason:     auditReason(req),
	})

	if code == lifecycle.CodeTerminalState {
		return &model.ActionResp{Case: c, Noop: true, Code: string(code)}, nil
	}
	util.GetLogger().Info("case action refused", "case_id", c.ID, "action", req.Action, "actor_id", p.ID, "code", code)
	return nil, err
}

func auditReason(req model.ApplyActionReq) string {
	if req.Reason != "" {
		return req.Reason
	}
	return req.Comment
}

// GetCaseAudit lists the audit log of a case. Officers and the chairman only.
func (s *Service) GetCaseAudit(ctx context.Context, p *model.Principal, req model.GetCaseAuditReq) (*model.GetCaseAuditResp, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if p.Role != model.RoleOfficer && p.Role != model.RoleChairman {
		return nil, ErrForbidden
	}
	if _, err := s.loadVisible(ctx, p, req.CaseID); err != nil {
		return nil, err
	}

	data, total, err := s.AuditLog.FindAudit(ctx, req)
	if err != nil {
		return nil, err
	}
	return &model.GetCaseAuditResp{
		Data:       data,
		Page:       req.Page,
		Size:       req.Size,
		TotalCount: total,
	}, nil
}
