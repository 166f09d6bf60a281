package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usernames(users []*domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func TestUserRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	u := testutil.NewTestUser("asha", domain.RoleProjectOfficer)
	require.NoError(t, repo.Create(ctx, u))
	assert.ErrorIs(t, repo.Create(ctx, testutil.NewTestUser("asha", domain.RoleViewer)), domain.ErrDuplicate)

	got, err := repo.Get(ctx, "ASHA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProjectOfficer, got.Role)
	assert.True(t, got.Active)

	got.Role = domain.RoleHoD
	got.Active = false
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.Get(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHoD, got.Role)
	assert.False(t, got.Active)

	_, err = repo.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_ListByRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	for _, u := range testutil.StandardUsers() {
		require.NoError(t, repo.Create(ctx, u))
	}
	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("retired", domain.RoleHoD, testutil.WithInactive())))

	got, err := repo.ListByRole(ctx, domain.RoleHoD, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "hod"}, usernames(got))

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 4)
}

func TestUserRepo_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("ravi", domain.RoleProjectOfficer, testutil.WithDisplayName("Ravi Kumar"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("arvind", domain.RoleHoD, testutil.WithDisplayName("Arvind Rao"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("meera", domain.RoleViewer, testutil.WithDisplayName("Meera Ravindran"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("ravina", domain.RoleViewer, testutil.WithInactive())))

	got, err := repo.Search(ctx, "RAV", 10)
	require.NoError(t, err)
	// Username prefix matches come first, then other matches by username.
	assert.Equal(t, []string{"ravi", "meera"}, usernames(got))

	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("aravind", domain.RoleViewer)))
	require.NoError(t, repo.Create(ctx, testutil.NewTestUser("ravindra", domain.RoleViewer)))
	got, err = repo.Search(ctx, "rav", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"ravi", "ravindra", "aravind", "meera"}, usernames(got))

	got, err = repo.Search(ctx, "r", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Search(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, got, "wildcards are matched literally")
}
