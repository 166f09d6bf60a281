package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func TestStageStart(t *testing.T) {
	s := &ProjectStage{Code: "IPA", Status: StageNotStarted}
	require.NoError(t, s.Start(testDay))
	assert.Equal(t, StageInProgress, s.Status)
	require.NotNil(t, s.ActualStart)
	assert.Equal(t, DateOnly(testDay), *s.ActualStart)

	err := s.Start(testDay)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStageStart_FromBlockedKeepsActualStart(t *testing.T) {
	first := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := &ProjectStage{Code: "AON", Status: StageBlocked, ActualStart: &first}
	require.NoError(t, s.Start(testDay))
	assert.Equal(t, first, *s.ActualStart)
}

func TestStageComplete(t *testing.T) {
	s := &ProjectStage{Code: "BM", Status: StageNotStarted}
	require.NoError(t, s.Complete(testDay))
	assert.Equal(t, StageCompleted, s.Status)
	assert.Equal(t, DateOnly(testDay), *s.CompletedOn)
	assert.Equal(t, DateOnly(testDay), *s.ActualStart, "unstarted stage starts and finishes the same day")
}

func TestStageComplete_BeforeStartRejected(t *testing.T) {
	start := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	s := &ProjectStage{Code: "BM", Status: StageInProgress, ActualStart: &start}
	err := s.Complete(testDay)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StageInProgress, s.Status)
}

func TestStageComplete_FromSkipped(t *testing.T) {
	s := &ProjectStage{Code: "COB", Status: StageSkipped}
	assert.ErrorIs(t, s.Complete(testDay), ErrInvalidTransition)
}

func TestStageSkipAndBlock(t *testing.T) {
	s := &ProjectStage{Code: "PNC", Status: StageNotStarted}
	require.NoError(t, s.Block())
	assert.Equal(t, StageBlocked, s.Status)
	require.NoError(t, s.Skip())
	assert.Equal(t, StageSkipped, s.Status)
	assert.ErrorIs(t, s.Block(), ErrInvalidTransition)
}

func TestStageReopen(t *testing.T) {
	done := DateOnly(testDay)
	s := &ProjectStage{Code: "SO", Status: StageCompleted, ActualStart: &done, CompletedOn: &done}
	require.NoError(t, s.Reopen(testDay))
	assert.Equal(t, StageInProgress, s.Status)
	assert.Nil(t, s.CompletedOn)

	open := &ProjectStage{Code: "SO", Status: StageInProgress}
	assert.ErrorIs(t, open.Reopen(testDay), ErrInvalidTransition)
}

func TestIsOpen(t *testing.T) {
	cases := map[StageStatus]bool{
		StageNotStarted: true,
		StageInProgress: true,
		StageBlocked:    true,
		StageCompleted:  false,
		StageSkipped:    false,
	}
	for status, open := range cases {
		s := &ProjectStage{Status: status}
		assert.Equal(t, open, s.IsOpen(), "status=%s", status)
	}
}

func TestDayNumberAndDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 3, 17, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 7, DaysBetween(a, b))
	assert.Equal(t, 0, DayNumber(time.Date(1970, 1, 1, 12, 0, 0, 0, time.UTC)))
}
