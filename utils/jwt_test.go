package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, exp, err := m.GenerateToken("u1", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseTokenRejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	token, _, err := m.GenerateToken("u1", "user")
	require.NoError(t, err)

	_, err = NewTokenManager("other", time.Hour).ParseToken(token)
	assert.Error(t, err, "wrong secret")

	_, err = m.ParseToken("not.a.token")
	assert.Error(t, err)

	expired := NewTokenManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.ParseToken(token)
	assert.Error(t, err, "expired")
}

func TestDefaultTokenTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewTokenManager("s", 0).ttl)
}
