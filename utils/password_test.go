package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "secret124"))
	assert.False(t, CheckPassword("not-a-hash", "secret123"))

	_, err = HashPassword("12345")
	assert.ErrorIs(t, err, ErrPasswordLength)
	_, err = HashPassword(strings.Repeat("x", MaxPasswordLen+1))
	assert.ErrorIs(t, err, ErrPasswordLength)
}
