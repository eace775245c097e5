package service

import (
	"context"
	"testing"

	"foodcourt-service/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewAdminService(db)

	created, err := svc.EnsureAdmin(ctx, "root", "supersecret")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root", "different")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Authenticate(ctx, "root", "supersecret")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "root", "different")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAdminUpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewAdminService(db)
	admin, err := svc.Create(ctx, "ops", "password1", "")
	require.NoError(t, err)
	assert.Equal(t, "ops", admin.Name)

	_, err = svc.Create(ctx, "ops", "password1", "")
	assert.ErrorIs(t, err, ErrConflict)

	name := "Operations"
	_, err = svc.UpdateProfile(ctx, admin.ID, AdminProfileInput{Name: &name, CurrentPassword: "bad", NewPassword: "password2"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	updated, err := svc.UpdateProfile(ctx, admin.ID, AdminProfileInput{Name: &name, CurrentPassword: "password1", NewPassword: "password2"})
	require.NoError(t, err)
	assert.Equal(t, "Operations", updated.Name)

	_, err = svc.Authenticate(ctx, "ops", "password2")
	assert.NoError(t, err)
}
