package app

import (
	"testing"

	"admin_console/internal/auth"
	"admin_console/internal/config"
	"admin_console/internal/models"
	"admin_console/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedFirstAdmin(t *testing.T) {
	auth.Cost = bcrypt.MinCost
	db := testutil.NewTestDB(t)

	cfg := &config.Config{}
	cfg.FirstAdmin.Email = "boss@corp.io"
	cfg.FirstAdmin.Password = "supersecret"
	cfg.FirstAdmin.Department = "ALL"

	require.NoError(t, seedFirstAdmin(db, cfg))
	require.NoError(t, seedFirstAdmin(db, cfg), "повторный запуск ничего не создает")

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.UserRoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "All", admins[0].Department)
	assert.Equal(t, "Administrator", admins[0].Name)
	assert.True(t, auth.CheckPasswordHash("supersecret", admins[0].PasswordHash))
}

func TestSeedFirstAdmin_SkipsWithoutCredentials(t *testing.T) {
	db := testutil.NewTestDB(t)
	require.NoError(t, seedFirstAdmin(db, &config.Config{}))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
