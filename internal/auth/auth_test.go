package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)

	token, expiresAt, err := m.GenerateToken(7, "admin@corp.io", "Admin", RoleAdmin, "Sales")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Sales", claims.Department)
	assert.Equal(t, "Admin", claims.DisplayName())
	assert.True(t, IsAdmin(claims))
	assert.True(t, CanPerformAction(claims, "users:import"))
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	token, _, err := m.GenerateToken(1, "u@corp.io", "", RoleUser, "Sales")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Minute).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := &TokenManager{secret: []byte("secret"), ttl: -time.Minute}
	token, _, err = expired.GenerateToken(1, "u@corp.io", "", RoleUser, "Sales")
	require.NoError(t, err)
	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("password123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))

	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long-enough"))
}

func TestClaims_DisplayNameFallsBackToEmail(t *testing.T) {
	c := &Claims{Email: "root@corp.io"}
	assert.Equal(t, "root@corp.io", c.DisplayName())
	assert.False(t, IsAdmin(nil))
}
