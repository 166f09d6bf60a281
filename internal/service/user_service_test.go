package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/repository"
	"github.com/alexanderramin/stagegate/internal/testutil"
)

func TestUserCreate_BootstrapNeedsAdmin(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewSQLiteUserRepo(database), testutil.NewTestUoW(database))
	ctx := context.Background()

	err := svc.Create(ctx, nil, &domain.User{Username: "someone", Role: domain.RoleViewer})
	assert.ErrorIs(t, err, domain.ErrValidation)

	root := &domain.User{Username: " Root.Admin ", Role: domain.RoleAdmin}
	require.NoError(t, svc.Create(ctx, nil, root))
	assert.Equal(t, "root.admin", root.Username)
	assert.Equal(t, "Root Admin", root.DisplayName)
	assert.True(t, root.Active)

	err = svc.Create(ctx, nil, &domain.User{Username: "second", Role: domain.RoleViewer})
	assert.ErrorIs(t, err, domain.ErrForbidden, "only the first user skips the admin check")

	require.NoError(t, svc.Create(ctx, root, &domain.User{Username: "second", Role: domain.RoleViewer}))
	err = svc.Create(ctx, root, &domain.User{Username: "second", Role: domain.RoleViewer})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUserUpdateAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	viewer := *env.user("viewer")
	viewer.Active = false
	require.NoError(t, env.userSvc.Update(ctx, env.user("admin"), &viewer))

	_, err := env.userSvc.Authenticate(ctx, "viewer")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	u, err := env.userSvc.Authenticate(ctx, "HOD")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHoD, u.Role)

	self := *env.user("admin")
	self.Role = domain.RoleViewer
	assert.ErrorIs(t, env.userSvc.Update(ctx, env.user("admin"), &self), domain.ErrValidation)

	hod := *env.user("hod")
	hod.Role = domain.RoleAdmin
	assert.ErrorIs(t, env.userSvc.Update(ctx, env.user("hod"), &hod), domain.ErrForbidden)

	assert.Contains(t, env.auditActions(t, "user"), "user.update")
}
