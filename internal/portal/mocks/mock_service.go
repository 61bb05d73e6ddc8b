package mocks

import (
	"context"

	"caseportal/internal/portal/guard"
	"caseportal/internal/portal/model"

	"github.com/stretchr/testify/mock"
)

type MockPortalService struct {
	mock.Mock
}

func (m *MockPortalService) OpenSession(ctx context.Context, req model.OpenSessionReq) (*model.OpenSessionResp, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OpenSessionResp), args.Error(1)
}

func (m *MockPortalService) ResolveSession(ctx context.Context, token string) (string, *model.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.Principal), args.Error(2)
}

func (m *MockPortalService) CloseSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockPortalService) EvaluateNavigation(ctx context.Context, sessionID string, p *model.Principal, req model.EvaluateNavigationReq) (*guard.Decision, error) {
	args := m.Called(ctx, sessionID, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*guard.Decision), args.Error(1)
}

func (m *MockPortalService) CreateCase(ctx context.Context, p *model.Principal, req model.CreateCaseReq) (*model.Case, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockPortalService) GetCase(ctx context.Context, p *model.Principal, id string) (*model.Case, error) {
	args := m.Called(ctx, p, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockPortalService) ListCases(ctx context.Context, p *model.Principal, req model.ListCasesReq) (*model.CaseListResp, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CaseListResp), args.Error(1)
}

func (m *MockPortalService) ApplyAction(ctx context.Context, p *model.Principal, req model.ApplyActionReq) (*model.ActionResp, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ActionResp), args.Error(1)
}

func (m *MockPortalService) GetCaseAudit(ctx context.Context, p *model.Principal, req model.GetCaseAuditReq) (*model.GetCaseAuditResp, error) {
	args := m.Called(ctx, p, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GetCaseAuditResp), args.Error(1)
}
