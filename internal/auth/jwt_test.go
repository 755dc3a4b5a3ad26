package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodshare/internal/config"
	"foodshare/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})

	user := &models.User{ID: 42, Email: "alice@example.com"}
	token, err := manager.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})
	other := NewJWTManager(config.JWTConfig{Secret: "other-secret", ExpiresIn: "1h"})

	token, err := manager.GenerateToken(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "-1h"})

	token, err := manager.GenerateToken(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "1h"})

	_, err := manager.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestExpiresInDaySuffix(t *testing.T) {
	manager := NewJWTManager(config.JWTConfig{Secret: "test-secret", ExpiresIn: "7d"})

	token, err := manager.GenerateToken(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 7*24.0, lifetime.Hours())
}
