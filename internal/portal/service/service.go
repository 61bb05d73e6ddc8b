package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"caseportal/internal/portal/guard"
	"caseportal/internal/portal/lifecycle"
	"caseportal/internal/portal/metrics"
	"caseportal/internal/portal/model"
	"caseportal/internal/portal/repository"
	"caseportal/internal/portal/session"
	"caseportal/internal/portal/util"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict: case was changed concurrently")
	ErrBadRequest   = errors.New("bad request")
)

type PortalService interface {
	// Sessions
	OpenSession(ctx context.Context, req model.OpenSessionReq) (*model.OpenSessionResp, error)
	ResolveSession(ctx context.Context, token string) (string, *model.Principal, error)
	CloseSession(ctx context.Context, sessionID string) error
	// Navigation
	EvaluateNavigation(ctx context.Context, sessionID string, p *model.Principal, req model.EvaluateNavigationReq) (*guard.Decision, error)
	// Cases
	CreateCase(ctx context.Context, p *model.Principal, req model.CreateCaseReq) (*model.Case, error)
	GetCase(ctx context.Context, p *model.Principal, id string) (*model.Case, error)
	ListCases(ctx context.Context, p *model.Principal, req model.ListCasesReq) (*model.CaseListResp, error)
	ApplyAction(ctx context.Context, p *model.Principal, req model.ApplyActionReq) (*model.ActionResp, error)
	// Audit
	GetCaseAudit(ctx context.Context, p *model.Principal, req model.GetCaseAuditReq) (*model.GetCaseAuditResp, error)
}

type Service struct {
	Cases    repository.CaseRepository
	AuditLog repository.AuditRepository
	Sessions *session.Manager
	Engine   *lifecycle.Engine
	Guard    *guard.Guard
	Routes   *guard.RouteTable
	Metrics  *metrics.Metrics
	Now      func() time.Time

	pending sync.WaitGroup
}

func NewService(cases repository.CaseRepository, auditLog repository.AuditRepository, sessions *session.Manager, g *guard.Guard, m *metrics.Metrics) *Service {
	engine, err := lifecycle.NewEngine()
	if err != nil {
		// Transition tables are embedded, panic if they fail to load
		panic("failed to initialize lifecycle engine: " + err.Error())
	}
	routes, err := guard.LoadRouteTable()
	if err != nil {
		panic("failed to load route table: " + err.Error())
	}
	s := &Service{
		Cases:    cases,
		AuditLog: auditLog,
		Sessions: sessions,
		Engine:   engine,
		Guard:    g,
		Routes:   routes,
		Metrics:  m,
		Now:      time.Now,
	}
	engine.Now = s.now
	return s
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// recordAudit writes audit asynchronously (fire-and-forget).
func (s *Service) recordAudit(audit *model.CaseAudit) {
	if s.AuditLog == nil {
		return
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = s.now()
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.AuditLog.CreateAudit(ctx, audit); err != nil {
			util.GetLogger().Warn("failed to record case audit", "case_id", audit.CaseID, "error", err)
		}
	}()
}

// WaitAudits blocks until every audit write started so far has finished.
func (s *Service) WaitAudits() {
	s.pending.Wait()
}

func requirePrincipal(p *model.Principal) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	return nil
}

// loadVisible returns ErrNotFound both for missing cases and for cases p may not read.
func (s *Service) loadVisible(ctx context.Context, p *model.Principal, id string) (*model.Case, error) {
	c, err := s.Cases.LoadCase(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !model.VisibilityFor(p).Allows(c) {
		return nil, ErrNotFound
	}
	return c, nil
}
