package repositories

import (
	"context"
	"testing"

	"admin_console/internal/models"
	"admin_console/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewTestDB(t))

	user := &models.User{Name: "Alice", Email: "alice@corp.io", PasswordHash: "hash", Department: "Sales"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotZero(t, user.ID)

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.Name)
	assert.Equal(t, models.UserRoleUser, found.Role)
	assert.Equal(t, models.UserStatusActive, found.Status)

	found, err = repo.FindByEmail(ctx, " ALICE@corp.io ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = repo.Create(ctx, &models.User{Name: "Dup", Email: "Alice@corp.io", PasswordHash: "x", Department: "Sales"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestUserRepository_EmailTaken(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)

	alice := testutil.CreateUser(t, db, &models.User{Email: "alice@corp.io", Department: "Sales"})

	taken, err := repo.EmailTaken(ctx, "alice@corp.io", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.EmailTaken(ctx, "alice@corp.io", alice.ID)
	require.NoError(t, err)
	assert.False(t, taken, "собственный email не считается занятым")
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)

	user := testutil.CreateUser(t, db, &models.User{Email: "bob@corp.io", Department: "Sales"})
	user.Status = models.UserStatusInactive
	user.Department = "Engineering"
	require.NoError(t, repo.Update(ctx, user))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusInactive, found.Status)
	assert.Equal(t, "Engineering", found.Department)

	require.NoError(t, repo.UpdateProfilePicture(ctx, user.ID, "profile-pictures/x.png", "image/png"))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, found.HasProfilePicture())

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), ErrUserNotFound)
}

func TestUserRepository_CountByRole(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)

	testutil.CreateAdmin(t, db, "a1@corp.io", "Sales")
	testutil.CreateAdmin(t, db, "a2@corp.io", "Sales")
	testutil.CreateAdmin(t, db, "a3@corp.io", "Engineering")
	testutil.CreateUser(t, db, &models.User{Email: "u@corp.io", Department: "Marketing"})

	count, err := repo.CountByRole(ctx, models.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
