package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepo_CreateAndGetByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Radar Upgrade", testutil.WithBudget(12_500_000),
		testutil.WithStartDate(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, repo.Create(ctx, proj))

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "Radar Upgrade", fetched.Name)
	assert.Equal(t, int64(12_500_000), fetched.Budget)
	assert.Equal(t, domain.ProjectActive, fetched.Status)
	assert.Equal(t, 1, fetched.RowVersion)
	assert.Equal(t, "2026-02-02", fetched.StartDate.Format(domain.DateLayout))
}

func TestProjectRepo_GetByShortID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Sonar", testutil.WithShortID("SON01"))
	require.NoError(t, repo.Create(ctx, proj))

	// Case-insensitive lookup.
	fetched, err := repo.GetByShortID(ctx, "son01")
	require.NoError(t, err)
	assert.Equal(t, proj.ID, fetched.ID)
	assert.Equal(t, "SON01", fetched.ShortID)
}

func TestProjectRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectRepo_List_ExcludesArchived(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p1 := testutil.NewTestProject("Active1")
	p2 := testutil.NewTestProject("Active2")
	p3 := testutil.NewTestProject("Archived")
	require.NoError(t, repo.Create(ctx, p1))
	require.NoError(t, repo.Create(ctx, p2))
	require.NoError(t, repo.Create(ctx, p3))
	require.NoError(t, repo.Archive(ctx, p3.ID))

	list, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	listAll, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, listAll, 3)
}

func TestProjectRepo_List_KeysOnArchivedStatus(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	active := testutil.NewTestProject("Active")
	old := testutil.NewTestProject("Old", testutil.WithProjectStatus(domain.ProjectArchived))
	require.NoError(t, repo.Create(ctx, active))
	require.NoError(t, repo.Create(ctx, old))

	// status is authoritative even when archived_at was never written
	_, err := db.ExecContext(ctx, `UPDATE projects SET archived_at = NULL WHERE id = ?`, old.ID)
	require.NoError(t, err)

	list, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)
}

func TestProjectRepo_Create_ArchivedStatusStampsArchivedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p := testutil.NewTestProject("Old")
	p.Status = domain.ProjectArchived
	require.NoError(t, repo.Create(ctx, p))

	fetched, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectArchived, fetched.Status)
	assert.NotNil(t, fetched.ArchivedAt)
}

func TestProjectRepo_Update_BumpsRowVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("OrigName")
	require.NoError(t, repo.Create(ctx, proj))

	proj.Name = "NewName"
	proj.Sponsor = "Navy"
	proj.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, proj))
	assert.Equal(t, 2, proj.RowVersion)

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "NewName", fetched.Name)
	assert.Equal(t, "Navy", fetched.Sponsor)
	assert.Equal(t, 2, fetched.RowVersion)
}

func TestProjectRepo_Update_StaleRowVersion(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Contended")
	require.NoError(t, repo.Create(ctx, proj))

	first, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)

	first.Name = "First writer"
	require.NoError(t, repo.Update(ctx, first))

	second.Name = "Second writer"
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.Equal(t, 1, second.RowVersion, "failed update must not bump the caller's version")

	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "First writer", fetched.Name)
}

func TestProjectRepo_Update_Missing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)

	ghost := testutil.NewTestProject("Ghost")
	err := repo.Update(context.Background(), ghost)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectRepo_ArchiveAndUnarchive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("ArchTest")
	require.NoError(t, repo.Create(ctx, proj))

	require.NoError(t, repo.Archive(ctx, proj.ID))
	fetched, err := repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectArchived, fetched.Status)
	assert.NotNil(t, fetched.ArchivedAt)

	require.NoError(t, repo.Unarchive(ctx, proj.ID))
	fetched, err = repo.GetByID(ctx, proj.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, fetched.Status)
	assert.Nil(t, fetched.ArchivedAt)
	assert.Equal(t, 3, fetched.RowVersion)
}

func TestProjectRepo_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("DelTest")
	require.NoError(t, repo.Create(ctx, proj))

	require.NoError(t, repo.Delete(ctx, proj.ID))
	_, err := repo.GetByID(ctx, proj.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, proj.ID), domain.ErrNotFound)
}

func TestProjectRepo_UniqueShortID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteProjectRepo(db)
	ctx := context.Background()

	p1 := testutil.NewTestProject("Proj1", testutil.WithShortID("DUP01"))
	p2 := testutil.NewTestProject("Proj2", testutil.WithShortID("DUP01"))
	require.NoError(t, repo.Create(ctx, p1))
	assert.ErrorIs(t, repo.Create(ctx, p2), domain.ErrDuplicate)
}
