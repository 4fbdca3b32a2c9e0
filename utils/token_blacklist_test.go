package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklistInMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewTokenBlacklist(nil)
	b.now = func() time.Time { return now }

	assert.False(t, b.IsRevoked(ctx, "t1"))
	require.NoError(t, b.Revoke(ctx, "t1", now.Add(time.Minute)))
	assert.True(t, b.IsRevoked(ctx, "t1"))

	// Already expired tokens are not stored.
	require.NoError(t, b.Revoke(ctx, "t2", now.Add(-time.Second)))
	assert.False(t, b.IsRevoked(ctx, "t2"))

	now = now.Add(2 * time.Minute)
	assert.False(t, b.IsRevoked(ctx, "t1"))

	require.NoError(t, b.Revoke(ctx, "t3", now.Add(time.Minute)))
	assert.NotContains(t, b.mem, "t1")
}
