package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis server. An empty Host disables Redis.
type RedisOptions struct {
	Host     string
	Port     int
	DB       int
	Password string
}

// NewRedis returns a client for opts, or nil when Redis is not configured.
// The ping result is returned so callers can log it; a failed ping does not
// disable the client, callers fail open per operation.
func NewRedis(opts RedisOptions) (*redis.Client, error) {
	if opts.Host == "" {
		return nil, nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rc, rc.Ping(ctx).Err()
}
