package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alexanderramin/stagegate/internal/db"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Many writers holding the same row version: exactly one wins, the rest see
// ErrConcurrencyConflict, and no update is lost silently.
func TestStageRepo_ConcurrentStaleWriters(t *testing.T) {
	database, err := db.OpenDB(filepath.Join(t.TempDir(), "concurrent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	projects, stages := NewSQLiteProjectRepo(database), NewSQLiteStageRepo(database)
	p := testutil.NewTestProject("Contended")
	fs := testutil.NewTestStage(p.ID, "FS", 1)
	require.NoError(t, projects.Create(ctx, p))
	require.NoError(t, stages.CreateBatch(ctx, []*domain.ProjectStage{fs}))

	const writers = 12
	uow := db.NewSQLiteUnitOfWork(database)
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot := *fs
			snapshot.DurationDays = 20
			results <- uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
				return NewSQLiteStageRepo(tx).Update(ctx, &snapshot)
			})
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrConcurrencyConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)

	got, err := stages.GetByID(ctx, fs.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.RowVersion)
}
