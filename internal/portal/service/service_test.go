package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"caseportal/internal/portal/guard"
	"caseportal/internal/portal/lifecycle"
	"caseportal/internal/portal/metrics"
	"caseportal/internal/portal/mocks"
	"caseportal/internal/portal/model"
	"caseportal/internal/portal/repository"
	"caseportal/internal/portal/session"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	citizen  = &model.Principal{ID: "citizen-1", Role: model.RoleCitizen, SessionValid: true}
	citizen2 = &model.Principal{ID: "citizen-2", Role: model.RoleCitizen, SessionValid: true}
	officer  = &model.Principal{ID: "officer-1", Role: model.RoleOfficer, SessionValid: true}
	officer2 = &model.Principal{ID: "officer-2", Role: model.RoleOfficer, SessionValid: true}
	chairman = &model.Principal{ID: "chairman", Role: model.RoleChairman, SessionValid: true}
)

func newTestService(t *testing.T) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	sessions := session.NewManager(session.NewMemoryStore(), session.NewTokens("test-secret", time.Hour))
	svc := NewService(repository.NewMemoryCaseRepository(), repository.NewMemoryAuditRepository(), sessions, guard.NewDefault(), m)
	return svc, m
}

func act(t *testing.T, svc *Service, p *model.Principal, id string, action model.Action, reason string) (*model.ActionResp, error) {
	t.Helper()
	return svc.ApplyAction(context.Background(), p, model.ApplyActionReq{CaseID: id, Action: action, Reason: reason})
}

func TestRequestScenario(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t)

	c, err := svc.CreateCase(ctx, citizen, model.CreateCaseReq{Kind: model.KindRequest, Title: "Birth certificate"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, c.Status)
	assert.Equal(t, int64(1), c.Version)

	resp, err := act(t, svc, officer, c.ID, model.ActionClaim, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, resp.Case.Status)
	assert.Equal(t, officer.ID, resp.Case.AssigneeID)

	_, err = act(t, svc, officer, c.ID, model.ActionBeginProcessing, "")
	require.NoError(t, err)

	_, err = act(t, svc, officer, c.ID, model.ActionReject, "   ")
	assert.ErrorIs(t, err, lifecycle.ErrMissingReason)
	stored, err := svc.GetCase(ctx, chairman, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, stored.Status)
	assert.Len(t, stored.History, 2)

	resp, err = act(t, svc, officer, c.ID, model.ActionReject, "missing stamp")
	require.NoError(t, err)
	assert.False(t, resp.Noop)
	assert.Equal(t, model.StatusRejected, resp.Case.Status)
	require.NotNil(t, resp.Case.Decision)
	assert.Equal(t, "missing stamp", resp.Case.Decision.Reason)
	assert.Empty(t, resp.Case.AssigneeID)
	assert.Equal(t, int64(4), resp.Case.Version)

	resp, err = act(t, svc, officer, c.ID, model.ActionReject, "again")
	require.NoError(t, err)
	assert.True(t, resp.Noop)
	assert.Equal(t, string(lifecycle.CodeTerminalState), resp.Code)
	assert.Equal(t, int64(4), resp.Case.Version)
	assert.Len(t, resp.Case.History, 3)

	svc.WaitAudits()
	audit, err := svc.GetCaseAudit(ctx, chairman, model.GetCaseAuditReq{CaseID: c.ID, Page: 1, Size: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(5), audit.TotalCount)
	results := map[string]int{}
	for _, a := range audit.Data {
		results[a.Result]++
	}
	assert.Equal(t, map[string]int{
		model.AuditAccepted:                 3,
		string(lifecycle.CodeMissingReason): 1,
		model.AuditNoop:                     1,
	}, results)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("request", "reject", model.AuditAccepted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("request", "reject", model.AuditNoop)))
}

func TestUndeclaredActionsShareOneMetricSeries(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t)

	c, err := svc.CreateCase(ctx, citizen, model.CreateCaseReq{Kind: model.KindRequest, Title: "Passport"})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := act(t, svc, citizen, c.ID, model.Action(fmt.Sprintf("junk-%d", i)), "")
		assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)
	}
	assert.Equal(t, 1, testutil.CollectAndCount(m.Transitions))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.Transitions.WithLabelValues("request", metrics.UnknownAction, string(lifecycle.CodeUnknownAction))))

	_, err = act(t, svc, officer, c.ID, model.ActionClaim, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("request", string(model.ActionClaim), model.AuditAccepted)))
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	c, err := svc.CreateCase(ctx, citizen, model.CreateCaseReq{Kind: model.KindRequest, Title: "Residence permit"})
	require.NoError(t, err)

	const officers = 8
	var won, lost atomic.Int32
	var winner atomic.Value

	var g errgroup.Group
	for i := 0; i < officers; i++ {
		p := &model.Principal{ID: fmt.Sprintf("officer-%d", i), Role: model.RoleOfficer, SessionValid: true}
		g.Go(func() error {
			resp, err := act(t, svc, p, c.ID, model.ActionClaim, "")
			switch {
			case err == nil:
				won.Add(1)
				winner.Store(resp.Case.AssigneeID)
				return nil
			case errors.Is(err, lifecycle.ErrAlreadyAssigned):
				lost.Add(1)
				return nil
			default:
				return err
			}
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), won.Load())
	assert.Equal(t, int32(officers-1), lost.Load())

	stored, err := svc.GetCase(ctx, chairman, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssigned, stored.Status)
	assert.Equal(t, winner.Load(), stored.AssigneeID)
	assert.Len(t, stored.History, 1)
	svc.WaitAudits()
}

func TestApplyActionVersionConflict(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	submitted := &model.Case{
		ID: "c1", Kind: model.KindRequest, Status: model.StatusSubmitted, OwnerID: citizen.ID,
		History: []model.HistoryEntry{}, Version: 1, CreatedAt: now, UpdatedAt: now,
	}
	assignedAt := now.Add(time.Minute)
	claimedByOther := submitted.Clone()
	claimedByOther.Status = model.StatusAssigned
	claimedByOther.AssigneeID = officer2.ID
	claimedByOther.AssignedAt = &assignedAt
	claimedByOther.Version = 2
	claimedByOther.History = []model.HistoryEntry{{
		Action: model.ActionClaim, ByID: officer2.ID, At: assignedAt,
		FromStatus: model.StatusSubmitted, ToStatus: model.StatusAssigned,
	}}

	t.Run("lost claim reports already assigned", func(t *testing.T) {
		repo := new(mocks.MockCaseRepository)
		m := metrics.New(prometheus.NewRegistry())
		svc := NewService(repo, nil, nil, guard.NewDefault(), m)

		first := submitted.Clone()
		repo.On("LoadCase", ctx, "c1").Return(&first, nil).Once()
		repo.On("SaveCase", ctx, mock.AnythingOfType("*model.Case"), int64(1)).Return(repository.ErrVersionConflict).Once()
		repo.On("LoadCase", ctx, "c1").Return(&claimedByOther, nil).Once()

		_, err := act(t, svc, officer, "c1", model.ActionClaim, "")
		require.ErrorIs(t, err, lifecycle.ErrAlreadyAssigned)
		var le *lifecycle.Error
		require.ErrorAs(t, err, &le)
		assert.Equal(t, officer2.ID, le.Assignee)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ClaimConflicts))
		repo.AssertExpectations(t)
	})

	t.Run("unclassified conflict", func(t *testing.T) {
		repo := new(mocks.MockCaseRepository)
		svc := NewService(repo, nil, nil, guard.NewDefault(), nil)

		first := submitted.Clone()
		fresh := submitted.Clone()
		fresh.Version = 2
		fresh.Title = "edited"
		repo.On("LoadCase", ctx, "c1").Return(&first, nil).Once()
		repo.On("SaveCase", ctx, mock.AnythingOfType("*model.Case"), int64(1)).Return(repository.ErrVersionConflict).Once()
		repo.On("LoadCase", ctx, "c1").Return(&fresh, nil).Once()

		_, err := act(t, svc, officer, "c1", model.ActionClaim, "")
		assert.ErrorIs(t, err, ErrConflict)
		repo.AssertExpectations(t)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(mocks.MockCaseRepository)
		svc := NewService(repo, nil, nil, guard.NewDefault(), nil)
		boom := errors.New("connection reset")
		repo.On("LoadCase", ctx, "c1").Return(nil, boom).Once()

		_, err := act(t, svc, officer, "c1", model.ActionClaim, "")
		assert.ErrorIs(t, err, boom)
	})
}

func TestCreateCaseRules(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.CreateCase(ctx, nil, model.CreateCaseReq{Kind: model.KindRequest, Title: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	expired := &model.Principal{ID: citizen.ID, Role: model.RoleCitizen}
	_, err = svc.CreateCase(ctx, expired, model.CreateCaseReq{Kind: model.KindRequest, Title: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.CreateCase(ctx, officer, model.CreateCaseReq{Kind: model.KindRequest, Title: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	app, err := svc.CreateCase(ctx, &model.Principal{ID: "applicant", SessionValid: true}, model.CreateCaseReq{Kind: model.KindOfficerApproval, Title: "Officer registration"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, app.Status)
	assert.Equal(t, "applicant", app.OwnerID)
}

func TestOfficerApprovalFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	app, err := svc.CreateCase(ctx, officer, model.CreateCaseReq{Kind: model.KindOfficerApproval, Title: "Registration"})
	require.NoError(t, err)

	_, err = act(t, svc, officer, app.ID, model.ActionApprove, "")
	assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)

	_, err = act(t, svc, chairman, app.ID, model.ActionClaim, "")
	assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)

	resp, err := svc.ApplyAction(ctx, chairman, model.ApplyActionReq{CaseID: app.ID, Action: model.ActionApprove, Comment: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, resp.Case.Status)
	assert.Equal(t, "welcome", resp.Case.Decision.Reason)

	resp, err = act(t, svc, chairman, app.ID, model.ActionReject, "changed my mind")
	require.NoError(t, err)
	assert.True(t, resp.Noop)
	assert.Equal(t, model.StatusApproved, resp.Case.Status)
	svc.WaitAudits()
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	mine, err := svc.CreateCase(ctx, citizen, model.CreateCaseReq{Kind: model.KindRequest, Title: "a"})
	require.NoError(t, err)
	_, err = svc.CreateCase(ctx, citizen2, model.CreateCaseReq{Kind: model.KindRequest, Title: "b"})
	require.NoError(t, err)
	app, err := svc.CreateCase(ctx, officer2, model.CreateCaseReq{Kind: model.KindOfficerApproval, Title: "c"})
	require.NoError(t, err)

	_, err = svc.GetCase(ctx, citizen2, mine.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetCase(ctx, citizen, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetCase(ctx, officer, app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = act(t, svc, citizen2, mine.ID, model.ActionClaim, "")
	assert.ErrorIs(t, err, ErrNotFound)

	page := model.ListCasesReq{Page: 1, Size: 50}
	list, err := svc.ListCases(ctx, citizen, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	list, err = svc.ListCases(ctx, officer, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)

	list, err = svc.ListCases(ctx, officer2, page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalCount)

	list, err = svc.ListCases(ctx, chairman, model.ListCasesReq{Kind: model.KindOfficerApproval, Page: 1, Size: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalCount)

	_, err = svc.GetCaseAudit(ctx, citizen, model.GetCaseAuditReq{CaseID: mine.ID, Page: 1, Size: 10})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GetCaseAudit(ctx, officer, model.GetCaseAuditReq{CaseID: app.ID, Page: 1, Size: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateNavigation(t *testing.T) {
	ctx := context.Background()
	svc, m := newTestService(t)

	opened, err := svc.OpenSession(ctx, model.OpenSessionReq{UserID: "newcomer"})
	require.NoError(t, err)
	sid, p, err := svc.ResolveSession(ctx, opened.Token)
	require.NoError(t, err)
	require.NotNil(t, p)

	d, err := svc.EvaluateNavigation(ctx, sid, p, model.EvaluateNavigationReq{Path: "/citizen/requests"})
	require.NoError(t, err)
	assert.Equal(t, guard.OutcomeAllow, d.Outcome)
	assert.True(t, d.RoleDefaulted)

	_, p, err = svc.ResolveSession(ctx, opened.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCitizen, p.Role)
	assert.True(t, p.RoleDefaulted)

	d, err = svc.EvaluateNavigation(ctx, sid, p, model.EvaluateNavigationReq{Path: "/approvals"})
	require.NoError(t, err)
	assert.Equal(t, guard.OutcomeRedirectToRoleHome, d.Outcome)
	assert.Equal(t, "/citizen", d.Location)

	d, err = svc.EvaluateNavigation(ctx, sid, p, model.EvaluateNavigationReq{Path: "/anything", RequiredRole: model.RoleOfficer, VisitCount: 2})
	require.NoError(t, err)
	assert.Equal(t, guard.OutcomeAllow, d.Outcome)
	assert.True(t, d.LoopBroken)

	d, err = svc.EvaluateNavigation(ctx, "", nil, model.EvaluateNavigationReq{Path: "/requests/1"})
	require.NoError(t, err)
	assert.Equal(t, guard.OutcomeRedirectToLogin, d.Outcome)
	assert.Equal(t, "/requests/1", d.ReturnTo)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues(string(guard.OutcomeAllow))))

	require.NoError(t, svc.CloseSession(ctx, sid))
	_, p, err = svc.ResolveSession(ctx, opened.Token)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, svc.CloseSession(ctx, ""), ErrUnauthorized)
}
