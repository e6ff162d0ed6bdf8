package security

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-characters!!!", 15*time.Minute)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "coach@example.com", true)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "coach@example.com", claims.Email)
	assert.True(t, claims.Premium)
	assert.Equal(t, "habitforge", claims.Issuer)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret-one-32-characters-long!!!", 15*time.Minute)
	validator := NewJWTManager("secret-two-32-characters-long!!!", 15*time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New(), "coach@example.com", false)
	require.NoError(t, err)

	_, err = validator.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-characters!!!", -time.Minute)

	token, err := manager.GenerateAccessToken(uuid.New(), "coach@example.com", false)
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret-key-32-characters!!!", 15*time.Minute)

	_, err := manager.ValidateAccessToken("not-a-token")
	assert.Error(t, err)
}
