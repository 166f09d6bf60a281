package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

func seedPortfolio(t *testing.T, env *testEnv) map[string]*domain.Project {
	t.Helper()
	projects := map[string]*domain.Project{}
	add := func(short, name string, opts []testutil.ProjectOption, stages ...*domain.ProjectStage) {
		p := testutil.NewTestProject(name, append(opts, testutil.WithShortID(short))...)
		env.seedProject(t, p, stages...)
		projects[short] = p
	}
	add("GRN01", "Green field", nil,
		testutil.NewTestStage("", "FS", 1, testutil.WithPlanned("2026-04-20", "2026-04-30")))
	add("AMB01", "Amber alert", nil,
		testutil.NewTestStage("", "FS", 1, testutil.WithPlanned("2026-02-02", "2026-02-06"),
			testutil.WithStageStatus(domain.StageCompleted), testutil.WithCompletedOn("2026-02-06")),
		testutil.NewTestStage("", "IPA", 2, testutil.WithPlanned("2026-02-09", "2026-03-03"),
			testutil.WithStageStatus(domain.StageInProgress), testutil.WithActualStart("2026-02-09")))
	add("RED01", "Beta radar", nil,
		testutil.NewTestStage("", "FS", 1, testutil.WithPlanned("2026-02-02", "2026-02-20")))
	add("RED02", "Alpha radar", nil,
		testutil.NewTestStage("", "FS", 1, testutil.WithPlanned("2026-02-02", "2026-02-22"),
			testutil.WithStageStatus(domain.StageBlocked)))
	add("OLD01", "Archived", []testutil.ProjectOption{testutil.WithProjectStatus(domain.ProjectArchived)},
		testutil.NewTestStage("", "FS", 1, testutil.WithPlanned("2025-01-01", "2025-01-10")))
	return projects
}

func TestGetStatus_OrdersRedAmberGreen(t *testing.T) {
	env := newTestEnv(t)
	seedPortfolio(t, env)

	resp, err := env.status.GetStatus(context.Background(), app.NewStatusRequest())
	require.NoError(t, err)

	var order []string
	for _, v := range resp.Projects {
		order = append(order, v.ShortID)
	}
	// RED01 slips 10 days, RED02 8 days.
	assert.Equal(t, []string{"RED01", "RED02", "AMB01", "GRN01"}, order)

	red := resp.Projects[0]
	assert.Equal(t, domain.RAGRed, red.RAG)
	assert.Equal(t, 10, red.MaxSlip)
	assert.Equal(t, "FS", red.WorstStage)
	assert.Equal(t, "2026-03-02", fmtDatePtr(red.ForecastCompletion), "overdue stage forecast to today")

	amber := resp.Projects[2]
	assert.Equal(t, domain.RAGAmber, amber.RAG)
	assert.Equal(t, []string{"IPA"}, amber.DueSoon)
	assert.Equal(t, "IPA", amber.CurrentStage)
	assert.Equal(t, 1, amber.StagesDone)
	assert.Equal(t, 1, resp.Projects[1].StagesBlocked)

	assert.Equal(t, app.StatusSummary{
		GeneratedAt: testNow,
		Today:       testutil.Date("2026-03-02"),
		CountsTotal: 4, CountsGreen: 1, CountsAmber: 1, CountsRed: 2,
	}, resp.Summary)
}

func TestGetStatus_ScopeAndToday(t *testing.T) {
	env := newTestEnv(t)
	seedPortfolio(t, env)
	ctx := context.Background()

	earlier := testutil.Date("2026-02-23")
	resp, err := env.status.GetStatus(ctx, app.StatusRequest{Today: &earlier, ProjectScope: []string{"red01", "RED01"}})
	require.NoError(t, err)
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, domain.RAGAmber, resp.Projects[0].RAG, "3 days late on the 23rd is amber")
	assert.Equal(t, 3, resp.Projects[0].MaxSlip)

	_, err = env.status.GetStatus(ctx, app.StatusRequest{ProjectScope: []string{"NOPE99"}})
	var statusErr *app.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, app.StatusErrInvalidScope, statusErr.Code)

	all, err := env.status.GetStatus(ctx, app.StatusRequest{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all.Projects, 5)
}

func TestGetStatus_WarnsAboutUnplannedProjects(t *testing.T) {
	env := newTestEnv(t)
	env.createProject(t, "NEW01", "Fresh")

	resp, err := env.status.GetStatus(context.Background(), app.NewStatusRequest())
	require.NoError(t, err)
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, domain.RAGGreen, resp.Projects[0].RAG)
	assert.Equal(t, []string{"NEW01 has no approved plan"}, resp.Warnings)
}

func TestProjectHealth_PerStageBreakdown(t *testing.T) {
	env := newTestEnv(t)
	seedPortfolio(t, env)

	health, err := env.status.ProjectHealth(context.Background(), "AMB01", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RAGAmber, health.RAG)
	require.Len(t, health.Stages, 2)

	fs, ipa := health.Stages[0], health.Stages[1]
	assert.Equal(t, 0, fs.Slip)
	assert.Equal(t, "2026-02-06", fmtDatePtr(fs.ForecastDue))
	assert.True(t, ipa.DueSoon)
	assert.False(t, ipa.Slipping)

	_, err = env.status.ProjectHealth(context.Background(), "ZZZ99", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
