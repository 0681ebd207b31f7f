package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, AccessToken, claims.TokenType)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateExpired(t *testing.T) {
	token, err := GenerateToken("user-123", AccessToken, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	assert.Error(t, err)
}

func TestIsTokenValidChecksType(t *testing.T) {
	token, err := GenerateToken("anon-1", GalleryToken, testSecret, time.Hour)
	require.NoError(t, err)

	assert.True(t, IsTokenValid(token, testSecret, GalleryToken))
	assert.False(t, IsTokenValid(token, testSecret, AccessToken))
}
