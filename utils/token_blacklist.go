package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist remembers revoked tokens until their natural expiry.
// Redis is preferred; without it entries live in process memory.
type TokenBlacklist struct {
	rc  *redis.Client
	mu  sync.RWMutex
	mem map[string]time.Time
	now func() time.Time
}

// NewTokenBlacklist creates a blacklist. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, mem: map[string]time.Time{}, now: time.Now}
}

func blacklistKey(token string) string { return "jwt:blacklist:" + token }

// Revoke blacklists token until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, blacklistKey(token), "1", ttl).Err()
	}
	b.mu.Lock()
	b.mem[token] = expiresAt
	b.cleanupLocked()
	b.mu.Unlock()
	return nil
}

// IsRevoked reports whether token was revoked. Redis errors fail open so an
// outage does not lock every user out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistKey(token)).Result()
		return err == nil && n > 0
	}
	b.mu.RLock()
	exp, ok := b.mem[token]
	b.mu.RUnlock()
	return ok && b.now().Before(exp)
}

func (b *TokenBlacklist) cleanupLocked() {
	now := b.now()
	for token, exp := range b.mem {
		if !now.Before(exp) {
			delete(b.mem, token)
		}
	}
}
