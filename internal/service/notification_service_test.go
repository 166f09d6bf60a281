package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

func TestSweepDueSoon_OncePerStagePerDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p := testutil.NewTestProject("Sonar", testutil.WithShortID("SON01"))
	env.seedProject(t, p,
		testutil.NewTestStage("", "FS", 1, testutil.WithStageStatus(domain.StageCompleted),
			testutil.WithPlanned("2026-02-23", "2026-03-02"), testutil.WithCompletedOn("2026-02-27")),
		testutil.NewTestStage("", "IPA", 2, testutil.WithStageStatus(domain.StageInProgress),
			testutil.WithPlanned("2026-02-24", "2026-03-03"), testutil.WithActualStart("2026-02-24")),
		testutil.NewTestStage("", "AON", 3, testutil.WithPlanned("2026-03-04", "2026-03-10")),
	)

	sent, err := env.notify.SweepDueSoon(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, sent, "IPA reminds the officer and the HoD")
	assert.ElementsMatch(t, []string{"officer", "hod"}, env.pub.recipients())

	sent, err = env.notify.SweepDueSoon(ctx, testNow.Add(3))
	require.NoError(t, err)
	assert.Zero(t, sent, "same day sweeps are deduplicated")

	sent, err = env.notify.SweepDueSoon(ctx, testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	list, err := env.notify.List(ctx, env.user("hod"), true, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	titles := []string{list[0].Title, list[1].Title}
	assert.ElementsMatch(t, []string{"SON01 IPA due tomorrow", "SON01 IPA due today"}, titles)
}

func TestNotificationsReadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProject(t, "RAD01", "Radar")
	for _, body := range []string{"@hod one", "@hod two", "@hod three"} {
		_, err := env.remarks.Add(ctx, env.user("officer"), RemarkRequest{ProjectID: p.ID, Body: body})
		require.NoError(t, err)
	}

	hod := env.user("hod")
	n, err := env.notify.UnreadCount(ctx, hod)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := env.notify.List(ctx, hod, true, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	assert.ErrorIs(t, env.notify.MarkRead(ctx, env.user("officer"), list[0].ID), domain.ErrNotFound,
		"other users cannot mark it")
	require.NoError(t, env.notify.MarkRead(ctx, hod, list[0].ID))

	n, err = env.notify.UnreadCount(ctx, hod)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	marked, err := env.notify.MarkAllRead(ctx, hod)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	_, err = env.notify.List(ctx, nil, false, 0)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
