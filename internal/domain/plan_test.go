package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanVersionWorkflow(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	v := &PlanVersion{Version: 1, Status: PlanDraft}

	assert.ErrorIs(t, v.Approve("hod", "", now), ErrInvalidTransition)

	require.NoError(t, v.Submit(now))
	assert.Equal(t, PlanPendingApproval, v.Status)
	require.NotNil(t, v.SubmittedAt)

	assert.ErrorIs(t, v.Submit(now), ErrInvalidTransition)

	require.NoError(t, v.Approve("hod", "  looks fine ", now))
	assert.Equal(t, PlanApproved, v.Status)
	assert.Equal(t, "hod", v.DecidedBy)
	assert.Equal(t, "looks fine", v.DecisionNote)
}

func TestPlanVersionReject_RequiresNote(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	v := &PlanVersion{Version: 2, Status: PlanPendingApproval}
	assert.ErrorIs(t, v.Reject("hod", " ", now), ErrValidation)
	assert.Equal(t, PlanPendingApproval, v.Status)

	require.NoError(t, v.Reject("hod", "durations too optimistic", now))
	assert.Equal(t, PlanRejected, v.Status)
}

func TestStageByCode(t *testing.T) {
	v := &PlanVersion{Stages: []StagePlan{{StageCode: "FS"}, {StageCode: "IPA", DurationDays: 10}}}
	require.NotNil(t, v.StageByCode("IPA"))
	assert.Equal(t, 10, v.StageByCode("IPA").DurationDays)
	assert.Nil(t, v.StageByCode("PAY"))
}
