// Package testutil - общие помощники тестов: in-memory база и тестовые пользователи.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"admin_console/database"
	"admin_console/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewTestDB открывает отдельную in-memory SQLite базу и выполняет миграции
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "не удалось открыть тестовую БД")
	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser создает пользователя с автоматическим хешированием пароля.
// В PasswordHash можно передать сырой пароль.
func CreateUser(t *testing.T, db *gorm.DB, user *models.User) *models.User {
	t.Helper()

	if user.PasswordHash == "" {
		user.PasswordHash = "password123"
	}
	if !strings.HasPrefix(user.PasswordHash, "$2a$") {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.PasswordHash), bcrypt.MinCost)
		require.NoError(t, err)
		user.PasswordHash = string(hashed)
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	if user.Name == "" {
		user.Name = strings.Split(user.Email, "@")[0]
	}

	require.NoError(t, db.Create(user).Error, "не удалось создать пользователя %s", user.Email)
	return user
}

// CreateAdmin создает админа отдела
func CreateAdmin(t *testing.T, db *gorm.DB, email, department string) *models.User {
	t.Helper()
	return CreateUser(t, db, &models.User{Email: email, Department: department, Role: models.UserRoleAdmin})
}
