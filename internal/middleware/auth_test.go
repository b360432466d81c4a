package middleware

import (
	"testing"
	"time"

	"sgti/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.SecretKey)
	require.NoError(t, err)
	return signed
}

func TestParseTokenRoundTrip(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":   "user-123",
		"email": "user@example.com",
		"type":  "access",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})

	claims, err := ParseToken(signed, "access")
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims["sub"])
	assert.Equal(t, "user@example.com", claims["email"])
}

// A refresh token must never pass as an access token, and vice versa.
func TestParseTokenRejectsWrongType(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":  "user-123",
		"type": "refresh",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	_, err := ParseToken(signed, "access")
	assert.Error(t, err)

	_, err = ParseToken(signed, "refresh")
	assert.NoError(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":  "user-123",
		"type": "access",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	})

	_, err := ParseToken(signed, "access")
	assert.Error(t, err)
}

func TestParseTokenRejectsBadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-123",
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = ParseToken(signed, "access")
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "access")
	assert.Error(t, err)

	_, err = ParseToken("", "access")
	assert.Error(t, err)
}

func TestParseTokenRequiresStringSubject(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":  12345,
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	_, err := ParseToken(signed, "access")
	assert.Error(t, err)
}
