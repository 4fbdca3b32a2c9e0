package utils

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AbuseLimits configures AbuseGuard. Zero values disable the matching check.
type AbuseLimits struct {
	RegisterCooldown       time.Duration
	RegisterMaxPerIPPerDay int
	LoginFailedMaxPerHour  int
	LoginBanDuration       time.Duration
}

// AbuseGuard throttles registrations and failed logins per client IP using
// Redis counters. Without Redis every check passes.
type AbuseGuard struct {
	rc     *redis.Client
	limits AbuseLimits
	now    func() time.Time
}

// NewAbuseGuard creates a guard. rc may be nil.
func NewAbuseGuard(rc *redis.Client, limits AbuseLimits) *AbuseGuard {
	return &AbuseGuard{rc: rc, limits: limits, now: time.Now}
}

func guardKey(parts ...string) string {
	return "guard:" + strings.Join(parts, ":")
}

func (g *AbuseGuard) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 500*time.Millisecond)
}

// RegisterAllowed enforces the per-IP cooldown between attempts and the
// daily cap on successful registrations.
func (g *AbuseGuard) RegisterAllowed(ctx context.Context, ip string) bool {
	if g.rc == nil {
		return true
	}
	ctx, cancel := g.ctx(ctx)
	defer cancel()

	if g.limits.RegisterMaxPerIPPerDay > 0 {
		n, err := g.rc.Get(ctx, guardKey("reg", "day", ip, g.now().Format("20060102"))).Int()
		if err == nil && n >= g.limits.RegisterMaxPerIPPerDay {
			return false
		}
	}
	if g.limits.RegisterCooldown > 0 {
		ok, err := g.rc.SetNX(ctx, guardKey("reg", "cooldown", ip), "1", g.limits.RegisterCooldown).Result()
		if err == nil && !ok {
			return false
		}
	}
	return true
}

// RegisterSucceeded counts a successful registration for today.
func (g *AbuseGuard) RegisterSucceeded(ctx context.Context, ip string) {
	if g.rc == nil {
		return
	}
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	key := guardKey("reg", "day", ip, g.now().Format("20060102"))
	if err := g.rc.Incr(ctx, key).Err(); err == nil {
		_ = g.rc.Expire(ctx, key, 24*time.Hour).Err()
	}
}

// LoginBanned reports whether ip is temporarily banned from logging in.
func (g *AbuseGuard) LoginBanned(ctx context.Context, ip string) bool {
	if g.rc == nil || g.limits.LoginFailedMaxPerHour <= 0 {
		return false
	}
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	n, err := g.rc.Exists(ctx, guardKey("login", "ban", ip)).Result()
	return err == nil && n > 0
}

// LoginFailed records a failed login and bans ip once the hourly threshold
// is reached.
func (g *AbuseGuard) LoginFailed(ctx context.Context, ip string) {
	if g.rc == nil || g.limits.LoginFailedMaxPerHour <= 0 {
		return
	}
	ctx, cancel := g.ctx(ctx)
	defer cancel()
	key := guardKey("login", "fail", ip, g.now().Format("2006010215"))
	n, err := g.rc.Incr(ctx, key).Result()
	if err != nil {
		return
	}
	_ = g.rc.Expire(ctx, key, time.Hour).Err()
	if int(n) >= g.limits.LoginFailedMaxPerHour {
		ban := g.limits.LoginBanDuration
		if ban <= 0 {
			ban = 30 * time.Minute
		}
		_ = g.rc.Set(ctx, guardKey("login", "ban", ip), "1", ban).Err()
	}
}
