package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGravatar(t *testing.T) {
	// md5("bob@example.com")
	want := "https://gravatar.com/avatar/4b9bb80620f03eb3719e0a061c14283d?s=200"
	assert.Equal(t, want, Gravatar("bob@example.com"))
	assert.Equal(t, want, Gravatar("  BOB@Example.com "))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
	assert.False(t, VerifyPassword("not-a-hash", "hunter22"))
}

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, 15)
	require.NoError(t, err)

	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), at.Exp, time.Minute)
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("secret", 42, 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	assert.Error(t, err)
}

func TestResetTokenShape(t *testing.T) {
	rt, err := NewResetToken(60)
	require.NoError(t, err)

	// 20 random bytes, hex encoded
	assert.Len(t, rt.Raw, 40)
	assert.WithinDuration(t, time.Now().Add(time.Hour), rt.Exp, time.Minute)

	other, err := NewResetToken(60)
	require.NoError(t, err)
	assert.NotEqual(t, rt.Raw, other.Raw)
}

func TestHashTokenRawIsStable(t *testing.T) {
	a := HashTokenRaw("abc")
	b := HashTokenRaw("abc")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashTokenRaw("abd"))
}
