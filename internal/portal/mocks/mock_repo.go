package mocks

import (
	"context"

	"caseportal/internal/portal/model"

	"github.com/stretchr/testify/mock"
)

// MockCaseRepository is a shared mock implementation of repository.CaseRepository for testing.
type MockCaseRepository struct {
	mock.Mock
}

func (m *MockCaseRepository) CreateCase(ctx context.Context, c *model.Case) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCaseRepository) LoadCase(ctx context.Context, id string) (*model.Case, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Case), args.Error(1)
}

func (m *MockCaseRepository) SaveCase(ctx context.Context, c *model.Case, expectedVersion int64) error {
	args := m.Called(ctx, c, expectedVersion)
	return args.Error(0)
}

func (m *MockCaseRepository) ListCases(ctx context.Context, filter model.CaseFilter) ([]*model.Case, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.Case), args.Get(1).(int64), args.Error(2)
}

func (m *MockCaseRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAuditRepository is a mock implementation of repository.AuditRepository.
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateAudit(ctx context.Context, audit *model.CaseAudit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditRepository) FindAudit(ctx context.Context, req model.GetCaseAuditReq) ([]*model.CaseAudit, int64, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*model.CaseAudit), args.Get(1).(int64), args.Error(2)
}

func (m *MockAuditRepository) EnsureAuditIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
