// Package cache provides the leaderboard cache backends: a Redis-backed
// store shared by every API instance, and a no-op store used when Redis is
// not configured.
//
// Entries are addressed by caller-built keys. A single version counter lives
// next to them; callers embed the version in their keys and bump it to
// orphan every older entry at once, leaving them to expire by TTL.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/fandom-backend/internal/config"
)

const (
	defaultPrefix = "fandom:"
	versionKey    = "leaderboard:version"
)

var lookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "leaderboard_cache_lookups_total",
		Help: "Leaderboard cache lookups by result (hit, miss, error).",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(lookups)
}

// Redis is a leaderboard cache backed by a go-redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis wraps client. Entries written by Set expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, prefix: defaultPrefix}
}

// Dial connects to the Redis server described by cfg and verifies it with a
// PING.
func Dial(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedis(client, cfg.CacheTTL), nil
}

// Get returns the value stored under key. A missing key is reported with
// ok=false and a nil error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		lookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	case err != nil:
		lookups.WithLabelValues("error").Inc()
		return nil, false, err
	}
	lookups.WithLabelValues("hit").Inc()
	return b, true, nil
}

// Set stores val under key with the cache TTL.
func (r *Redis) Set(ctx context.Context, key string, val []byte) error {
	return r.client.Set(ctx, r.prefix+key, val, r.ttl).Err()
}

// Version returns the current version counter; 0 before the first Bump.
func (r *Redis) Version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, r.prefix+versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Bump atomically increments the version counter.
func (r *Redis) Bump(ctx context.Context) error {
	return r.client.Incr(ctx, r.prefix+versionKey).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte) error         { return nil }
func (Noop) Version(context.Context) (int64, error)            { return 0, nil }
func (Noop) Bump(context.Context) error                        { return nil }
