package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("user-1", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = ParseJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestParseJWTRejects(t *testing.T) {
	expired, err := GenerateJWT("user-1", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.Error(t, err)

	anonymous, err := GenerateJWT("", "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(anonymous, "secret")
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseJWT(hs512, "secret")
	assert.Error(t, err)
}
