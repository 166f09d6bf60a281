package scheduler

import (
	"testing"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/workcal"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func date(s string) *time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testCalendar(t *testing.T) *workcal.Calendar {
	t.Helper()
	cal, err := workcal.New(workcal.DefaultWeekend, []domain.Holiday{{Date: *date("2026-01-26"), Name: "Republic Day"}})
	require.NoError(t, err)
	return cal
}

func TestDerivePlan(t *testing.T) {
	cal := testCalendar(t)
	got := DerivePlan(*date("2026-01-23"), []StageDuration{
		{Code: "FS", Sequence: 1, DurationDays: 3},
		{Code: "IPA", Sequence: 2, DurationDays: 5, Skip: true},
		{Code: "AON", Sequence: 3, DurationDays: 2},
		{Code: "BM", Sequence: 4, DurationDays: 0},
	}, cal)

	want := []domain.StagePlan{
		{StageCode: "FS", Sequence: 1, DurationDays: 3, PlannedStart: date("2026-01-23"), PlannedDue: date("2026-01-28")},
		{StageCode: "IPA", Sequence: 2, DurationDays: 5, Skip: true},
		{StageCode: "AON", Sequence: 3, DurationDays: 2, PlannedStart: date("2026-01-29"), PlannedDue: date("2026-01-30")},
		{StageCode: "BM", Sequence: 4, DurationDays: 0, PlannedStart: date("2026-02-02"), PlannedDue: date("2026-02-02")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DerivePlan mismatch (-want +got):\n%s", diff)
	}
}

func TestDerivePlan_AnchorOnWeekendShifts(t *testing.T) {
	cal := testCalendar(t)
	got := DerivePlan(*date("2026-01-24"), []StageDuration{{Code: "FS", DurationDays: 1}}, cal)
	require.Len(t, got, 1)
	if diff := cmp.Diff(date("2026-01-27"), got[0].PlannedStart); diff != "" {
		t.Errorf("start mismatch (-want +got):\n%s", diff)
	}
}

func TestDerivePlan_NeverLandsOnNonWorkingDay(t *testing.T) {
	cal := testCalendar(t)
	var input []StageDuration
	for i := 1; i <= 9; i++ {
		input = append(input, StageDuration{Code: string(rune('A' + i)), Sequence: i, DurationDays: i})
	}
	for offset := 0; offset < 14; offset++ {
		anchor := date("2026-01-15").AddDate(0, 0, offset)
		for _, p := range DerivePlan(anchor, input, cal) {
			require.True(t, cal.IsWorkingDay(*p.PlannedStart), "start %s", p.PlannedStart)
			require.True(t, cal.IsWorkingDay(*p.PlannedDue), "due %s", p.PlannedDue)
			require.False(t, p.PlannedDue.Before(*p.PlannedStart))
		}
	}
}
