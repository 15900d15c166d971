package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the counter-store connection. URL, when set, carries
// address, credentials and database (redis://[:password@]host:port/db) and
// takes precedence over Addr.
type RedisConfig struct {
	URL  string
	Addr string

	// Rate-limit checks sit on the request path; round trips must stay short.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize        int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration

	PingTimeout time.Duration
}

// options resolves cfg into client options, applying request-path defaults
// on top of whatever the URL specified.
func (c RedisConfig) options() (*redis.Options, error) {
	var opt *redis.Options
	switch {
	case c.URL != "":
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	case c.Addr != "":
		opt = &redis.Options{Addr: c.Addr}
	default:
		return nil, errors.New("redis url or addr is required")
	}

	opt.DialTimeout = orDefault(c.DialTimeout, 3*time.Second)
	opt.ReadTimeout = orDefault(c.ReadTimeout, 500*time.Millisecond)
	opt.WriteTimeout = orDefault(c.WriteTimeout, 500*time.Millisecond)
	opt.PoolTimeout = orDefault(c.PoolTimeout, time.Second)
	opt.ConnMaxIdleTime = orDefault(c.ConnMaxIdleTime, 5*time.Minute)
	opt.PoolSize = 20
	if c.PoolSize > 0 {
		opt.PoolSize = c.PoolSize
	}
	return opt, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// OpenRedis connects to Redis and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opt, err := cfg.options()
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, orDefault(cfg.PingTimeout, 2*time.Second))
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
