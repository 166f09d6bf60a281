package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProjectWithStages(t *testing.T, projects *SQLiteProjectRepo, stages *SQLiteStageRepo, p *domain.Project, list ...*domain.ProjectStage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, projects.Create(ctx, p))
	require.NoError(t, stages.CreateBatch(ctx, list))
}

func TestStageRepo_CreateBatchAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Radar")
	seedProjectWithStages(t, projects, stages, p,
		testutil.NewTestStage(p.ID, "IPA", 2, testutil.WithDuration(12)),
		testutil.NewTestStage(p.ID, "FS", 1, testutil.WithPlanned("2026-01-05", "2026-01-23")),
	)

	list, err := stages.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "FS", list[0].Code, "ordered by sequence")
	assert.Equal(t, "IPA", list[1].Code)
	require.NotNil(t, list[0].PlannedDue)
	assert.Equal(t, "2026-01-23", list[0].PlannedDue.Format(domain.DateLayout))
	assert.Nil(t, list[1].PlannedDue)
	assert.Equal(t, 12, list[1].DurationDays)
}

func TestStageRepo_DuplicateCode(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Radar")
	require.NoError(t, projects.Create(ctx, p))
	err := stages.CreateBatch(ctx, []*domain.ProjectStage{
		testutil.NewTestStage(p.ID, "FS", 1),
		testutil.NewTestStage(p.ID, "FS", 2),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestStageRepo_GetByCode_CaseInsensitive(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)

	p := testutil.NewTestProject("Radar")
	fs := testutil.NewTestStage(p.ID, "FS", 1)
	seedProjectWithStages(t, projects, stages, p, fs)

	got, err := stages.GetByCode(context.Background(), p.ID, "fs")
	require.NoError(t, err)
	assert.Equal(t, fs.ID, got.ID)

	_, err = stages.GetByCode(context.Background(), p.ID, "PAY")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStageRepo_UpdateRowVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Radar")
	fs := testutil.NewTestStage(p.ID, "FS", 1)
	seedProjectWithStages(t, projects, stages, p, fs)

	stale, err := stages.GetByID(ctx, fs.ID)
	require.NoError(t, err)

	require.NoError(t, fs.Start(testutil.Date("2026-01-05")))
	require.NoError(t, stages.Update(ctx, fs))
	assert.Equal(t, 2, fs.RowVersion)

	require.NoError(t, stale.Skip())
	assert.ErrorIs(t, stages.Update(ctx, stale), domain.ErrConcurrencyConflict)

	got, err := stages.GetByID(ctx, fs.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageInProgress, got.Status)
	require.NotNil(t, got.ActualStart)
	assert.Equal(t, "2026-01-05", got.ActualStart.Format(domain.DateLayout))
}

func TestStageRepo_UpdateForecastKeepsRowVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Radar")
	fs := testutil.NewTestStage(p.ID, "FS", 1)
	seedProjectWithStages(t, projects, stages, p, fs)

	fs.ForecastStart = testutil.DatePtr("2026-01-06")
	fs.ForecastDue = testutil.DatePtr("2026-01-30")
	require.NoError(t, stages.UpdateForecast(ctx, fs))

	got, err := stages.GetByID(ctx, fs.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RowVersion)
	require.NotNil(t, got.ForecastDue)
	assert.Equal(t, "2026-01-30", got.ForecastDue.Format(domain.DateLayout))
}

func TestStageRepo_ListOpenDueBetween(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects, stages := NewSQLiteProjectRepo(db), NewSQLiteStageRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Radar")
	seedProjectWithStages(t, projects, stages, p,
		testutil.NewTestStage(p.ID, "FS", 1, testutil.WithPlanned("2026-05-01", "2026-05-20"),
			testutil.WithStageStatus(domain.StageInProgress)),
		testutil.NewTestStage(p.ID, "IPA", 2, testutil.WithPlanned("2026-05-21", "2026-05-22")),
		testutil.NewTestStage(p.ID, "AON", 3, testutil.WithPlanned("2026-05-21", "2026-05-21"),
			testutil.WithStageStatus(domain.StageCompleted)),
		testutil.NewTestStage(p.ID, "BM", 4, testutil.WithPlanned("2026-05-25", "2026-06-30")),
	)
	archived := testutil.NewTestProject("Shelved")
	seedProjectWithStages(t, projects, stages, archived,
		testutil.NewTestStage(archived.ID, "FS", 1, testutil.WithPlanned("2026-05-01", "2026-05-21")))
	require.NoError(t, projects.Archive(ctx, archived.ID))

	due, err := stages.ListOpenDueBetween(ctx, testutil.Date("2026-05-20"), testutil.Date("2026-05-22"))
	require.NoError(t, err)
	codes := make([]string, 0, len(due))
	for _, s := range due {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{"FS", "IPA"}, codes)
}
