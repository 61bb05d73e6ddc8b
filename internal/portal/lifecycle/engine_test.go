package lifecycle_test

import (
	"testing"
	"time"

	"caseportal/internal/portal/lifecycle"
	"caseportal/internal/portal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *lifecycle.Engine {
	t.Helper()
	e, err := lifecycle.NewEngine()
	require.NoError(t, err)
	e.Now = func() time.Time { return fixedNow }
	return e
}

func officer(id string) model.Principal {
	return model.Principal{ID: id, Role: model.RoleOfficer, SessionValid: true}
}

func chairman(id string) model.Principal {
	return model.Principal{ID: id, Role: model.RoleChairman, SessionValid: true}
}

func citizen(id string) model.Principal {
	return model.Principal{ID: id, Role: model.RoleCitizen, SessionValid: true}
}

func newRequest() model.Case {
	return model.Case{ID: "req-1", Kind: model.KindRequest, Status: model.StatusSubmitted, OwnerID: "citizen-1"}
}

func newApproval() model.Case {
	return model.Case{ID: "app-1", Kind: model.KindOfficerApproval, Status: model.StatusPending, OwnerID: "applicant-1"}
}

// apply fails the test unless the transition is accepted.
func apply(t *testing.T, e *lifecycle.Engine, c model.Case, a model.Action, p model.Principal, payload lifecycle.Payload) model.Case {
	t.Helper()
	next, err := e.Apply(c, a, p, payload)
	require.NoError(t, err, "action %s", a)
	return next
}

func TestLoadTables(t *testing.T) {
	tables, err := lifecycle.LoadTables()
	require.NoError(t, err)

	assert.Len(t, tables, 2)
	assert.Len(t, tables[model.KindRequest].Actions, 5)
	assert.Len(t, tables[model.KindOfficerApproval].Actions, 2)
	assert.Equal(t, model.RoleChairman, tables[model.KindOfficerApproval].Actions[model.ActionApprove].Role)
	assert.True(t, tables[model.KindRequest].Actions[model.ActionReject].ReasonRequired)
}

func TestRequestScenarioClaimBeginReject(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")

	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	assert.Equal(t, model.StatusAssigned, c.Status)
	assert.Equal(t, "officer-a", c.AssigneeID)

	c = apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})
	assert.Equal(t, model.StatusProcessing, c.Status)

	c = apply(t, e, c, model.ActionReject, a, lifecycle.Payload{Reason: "missing document"})
	assert.Equal(t, model.StatusRejected, c.Status)
	require.NotNil(t, c.Decision)
	assert.Equal(t, model.OutcomeRejected, c.Decision.Outcome)
	assert.Equal(t, "missing document", c.Decision.Reason)
	assert.Equal(t, "officer-a", c.Decision.ByID)
	assert.Equal(t, fixedNow, c.Decision.At)
	assert.Empty(t, c.AssigneeID)
	assert.Len(t, c.History, 3)
	assert.Equal(t, "officer-a", c.UpdatedBy)
	assert.True(t, model.IsWellFormed(c))
}

func TestCompleteSetsApprovedDecision(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")

	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	c = apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})
	c = apply(t, e, c, model.ActionComplete, a, lifecycle.Payload{})

	assert.Equal(t, model.StatusCompleted, c.Status)
	require.NotNil(t, c.Decision)
	assert.Equal(t, model.OutcomeApproved, c.Decision.Outcome)
	assert.Empty(t, c.Decision.Reason)
	assert.Empty(t, c.AssigneeID)
	assert.Nil(t, c.AssignedAt)
}

func TestRejectRequiresReason(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	processing := apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})

	for _, reason := range []string{"", "   "} {
		got, err := e.Apply(processing, model.ActionReject, a, lifecycle.Payload{Reason: reason})
		assert.ErrorIs(t, err, lifecycle.ErrMissingReason)
		assert.Equal(t, processing, got)
		assert.Len(t, got.History, 2)
		assert.Nil(t, got.Decision)
	}

	got, err := e.Apply(processing, model.ActionReject, a, lifecycle.Payload{Reason: "x"})
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeRejected, got.Decision.Outcome)
}

func TestTerminalTransitionsAreNoops(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	boss := chairman("chair-1")

	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	c = apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})
	completed := apply(t, e, c, model.ActionComplete, a, lifecycle.Payload{})
	rejected := apply(t, e, c, model.ActionReject, a, lifecycle.Payload{Reason: "bad scan"})
	approved := apply(t, e, newApproval(), model.ActionApprove, boss, lifecycle.Payload{})
	declined := apply(t, e, newApproval(), model.ActionReject, boss, lifecycle.Payload{Reason: "no licence"})

	actions := []model.Action{
		model.ActionClaim, model.ActionBeginProcessing, model.ActionComplete,
		model.ActionReject, model.ActionRelease, model.ActionApprove, "bogus",
	}
	actors := []model.Principal{a, officer("officer-b"), boss, citizen("citizen-1"), {}}

	for _, terminal := range []model.Case{completed, rejected, approved, declined} {
		for _, action := range actions {
			for _, actor := range actors {
				got, err := e.Apply(terminal, action, actor, lifecycle.Payload{Reason: "again"})
				assert.ErrorIs(t, err, lifecycle.ErrTerminalState, "%s %s by %q", terminal.Status, action, actor.ID)
				assert.Equal(t, terminal, got)
				assert.Len(t, got.History, len(terminal.History))
				assert.Equal(t, terminal.Decision, got.Decision)
			}
		}
	}
}

func TestUnauthorizedActors(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	assigned := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	processing := apply(t, e, assigned, model.ActionBeginProcessing, a, lifecycle.Payload{})

	tests := []struct {
		name   string
		c      model.Case
		action model.Action
		actor  model.Principal
	}{
		{"citizen cannot claim", newRequest(), model.ActionClaim, citizen("citizen-1")},
		{"chairman cannot claim a request", newRequest(), model.ActionClaim, chairman("chair-1")},
		{"expired session cannot claim", newRequest(), model.ActionClaim, model.Principal{ID: "officer-a", Role: model.RoleOfficer}},
		{"other officer cannot begin processing", assigned, model.ActionBeginProcessing, officer("officer-b")},
		{"other officer cannot complete", processing, model.ActionComplete, officer("officer-b")},
		{"other officer cannot reject", processing, model.ActionReject, officer("officer-b")},
		{"other officer cannot release", processing, model.ActionRelease, officer("officer-b")},
		{"officer cannot approve applicant", newApproval(), model.ActionApprove, a},
		{"citizen cannot reject applicant", newApproval(), model.ActionReject, citizen("citizen-1")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Apply(tc.c, tc.action, tc.actor, lifecycle.Payload{Reason: "r"})
			assert.ErrorIs(t, err, lifecycle.ErrUnauthorized)
			assert.Equal(t, tc.c, got)
		})
	}
}

func TestClaimIsFirstWins(t *testing.T) {
	e := newEngine(t)
	assigned := apply(t, e, newRequest(), model.ActionClaim, officer("officer-a"), lifecycle.Payload{})

	got, err := e.Apply(assigned, model.ActionClaim, officer("officer-b"), lifecycle.Payload{})
	require.ErrorIs(t, err, lifecycle.ErrAlreadyAssigned)
	assert.Equal(t, assigned, got)

	var le *lifecycle.Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "officer-a", le.Assignee)

	_, err = e.Apply(assigned, model.ActionClaim, officer("officer-a"), lifecycle.Payload{})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestReleaseReturnsToQueue(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	c = apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})
	c = apply(t, e, c, model.ActionRelease, a, lifecycle.Payload{})

	assert.Equal(t, model.StatusSubmitted, c.Status)
	assert.Empty(t, c.AssigneeID)
	assert.Nil(t, c.AssignedAt)

	c = apply(t, e, c, model.ActionClaim, officer("officer-b"), lifecycle.Payload{})
	assert.Equal(t, "officer-b", c.AssigneeID)
}

func TestInvalidTransitions(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	assigned := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})

	_, err := e.Apply(assigned, model.ActionComplete, a, lifecycle.Payload{})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = e.Apply(assigned, model.ActionReject, a, lifecycle.Payload{Reason: "x"})
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)

	_, err = e.Apply(newRequest(), model.ActionApprove, a, lifecycle.Payload{})
	assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)

	_, err = e.Apply(newApproval(), model.ActionClaim, a, lifecycle.Payload{})
	assert.ErrorIs(t, err, lifecycle.ErrUnknownAction)
}

func TestOfficerApprovalDecisions(t *testing.T) {
	e := newEngine(t)
	boss := chairman("chair-1")

	t.Run("approve keeps optional comment", func(t *testing.T) {
		c := apply(t, e, newApproval(), model.ActionApprove, boss, lifecycle.Payload{Comment: "welcome aboard"})
		assert.Equal(t, model.StatusApproved, c.Status)
		assert.Equal(t, model.OutcomeApproved, c.Decision.Outcome)
		assert.Equal(t, "welcome aboard", c.Decision.Reason)
		assert.Empty(t, c.AssigneeID)
		assert.Len(t, c.History, 1)
	})

	t.Run("approve without comment", func(t *testing.T) {
		c := apply(t, e, newApproval(), model.ActionApprove, chairman("chair-2"), lifecycle.Payload{})
		assert.Equal(t, "chair-2", c.Decision.ByID)
		assert.Empty(t, c.Decision.Reason)
	})

	t.Run("reject requires reason", func(t *testing.T) {
		got, err := e.Apply(newApproval(), model.ActionReject, boss, lifecycle.Payload{})
		assert.ErrorIs(t, err, lifecycle.ErrMissingReason)
		assert.Equal(t, newApproval(), got)

		c := apply(t, e, newApproval(), model.ActionReject, boss, lifecycle.Payload{Reason: "incomplete file"})
		assert.Equal(t, model.StatusRejected, c.Status)
		assert.Equal(t, "incomplete file", c.Decision.Reason)
	})
}

func TestMalformedCaseIsStructuralError(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")

	malformed := []model.Case{
		{ID: "x", Kind: "ticket", Status: model.StatusSubmitted, OwnerID: "o"},
		{ID: "x", Kind: model.KindRequest, Status: model.StatusPending, OwnerID: "o"},
		{ID: "x", Kind: model.KindRequest, Status: model.StatusSubmitted, OwnerID: "o", AssigneeID: "officer-a"},
		{ID: "x", Kind: model.KindRequest, Status: model.StatusSubmitted, OwnerID: "o",
			Decision: &model.Decision{Outcome: model.OutcomeApproved}},
		{ID: "x", Kind: model.KindRequest, Status: model.StatusAssigned, OwnerID: "o"},
	}
	for _, c := range malformed {
		got, err := e.Apply(c, model.ActionClaim, a, lifecycle.Payload{})
		assert.ErrorIs(t, err, lifecycle.ErrStructural, "%+v", c)
		assert.Equal(t, c, got)
	}
}

func TestHistoryIsAppendOnlyAndChained(t *testing.T) {
	e := newEngine(t)
	a, b := officer("officer-a"), officer("officer-b")

	steps := []struct {
		action model.Action
		actor  model.Principal
	}{
		{model.ActionClaim, a},
		{model.ActionRelease, a},
		{model.ActionClaim, b},
		{model.ActionBeginProcessing, b},
		{model.ActionRelease, b},
		{model.ActionClaim, a},
		{model.ActionBeginProcessing, a},
		{model.ActionComplete, a},
	}

	c := newRequest()
	for i, s := range steps {
		prev := c
		c = apply(t, e, c, s.action, s.actor, lifecycle.Payload{})
		require.Len(t, c.History, i+1)
		if i > 0 {
			assert.Equal(t, prev.History, c.History[:i], "earlier entries must not change")
		}

		// a refused attempt in between appends nothing
		_, err := e.Apply(c, "bogus", s.actor, lifecycle.Payload{})
		require.Error(t, err)
		assert.Len(t, c.History, i+1)
	}

	for i := 0; i+1 < len(c.History); i++ {
		assert.Equal(t, c.History[i].ToStatus, c.History[i+1].FromStatus)
	}
	assert.Equal(t, model.StatusSubmitted, c.History[0].FromStatus)
	assert.Equal(t, c.Status, c.History[len(c.History)-1].ToStatus)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := newEngine(t)
	a := officer("officer-a")
	c := apply(t, e, newRequest(), model.ActionClaim, a, lifecycle.Payload{})
	snapshot := c.Clone()

	_ = apply(t, e, c, model.ActionBeginProcessing, a, lifecycle.Payload{})
	assert.Equal(t, snapshot, c)
}
