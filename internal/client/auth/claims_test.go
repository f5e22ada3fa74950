package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", info.Subject)
	assert.True(t, info.IssuedAt.Equal(now))
	assert.True(t, info.ExpiresAt.Equal(now.Add(time.Hour)))
	assert.False(t, info.Expired(now))
	assert.True(t, info.Expired(now.Add(2*time.Hour)))
}

func TestInspectToken_ExpiredStillReadable(t *testing.T) {
	// Истекший токен все равно разбирается: статус должен показать, что он истек
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	info, err := InspectToken(token)
	require.NoError(t, err)
	assert.True(t, info.Expired(time.Now()))
}

func TestInspectToken_Invalid(t *testing.T) {
	_, err := InspectToken("not-a-jwt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse token")

	info := TokenInfo{}
	assert.False(t, info.Expired(time.Now()), "токен без exp не истекает")
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", RedactEmail("ann@example.com"))
	assert.Equal(t, "***", RedactEmail("broken"))
	assert.Equal(t, "", RedactEmail(""))
}
