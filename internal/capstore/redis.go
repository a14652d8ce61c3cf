package capstore

import (
	"context"
	"time"

	backend "github.com/redis/go-redis/v9"

	"engagement-engine/internal/engine"
)

// Redis is the durable backend for multi-instance deployments.
// every-n-days markers carry a TTL matching the cap window, which
// doubles as opportunistic garbage collection; "once" markers never
// expire. Session flags expire with the session TTL and are tracked in
// a per-visitor index set so ResetSession can clear them eagerly.
type Redis struct {
	client     *backend.Client
	prefix     string
	sessionTTL time.Duration
}

type RedisOption func(*Redis)

// WithPrefix sets the key prefix for cap markers.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithSessionTTL sets the expiry for once-per-session flags.
func WithSessionTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.sessionTTL = ttl }
}

// NewRedis creates a cap store with its own client.
func NewRedis(addr, password string, db int, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient creates a cap store from an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		prefix:     "engage:cap:",
		sessionTTL: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) durableKey(visitorID, elementID string) string {
	return r.prefix + visitorID + ":" + Key(elementID)
}

func (r *Redis) sessionKey(visitorID, elementID string) string {
	return r.prefix + "sess:" + visitorID + ":" + Key(elementID)
}

func (r *Redis) sessionIndexKey(visitorID string) string {
	return r.prefix + "sess:" + visitorID + ":index"
}

func (r *Redis) IsCapped(ctx context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) (bool, error) {
	switch rule.Policy {
	case engine.CapOnce:
		n, err := r.client.Exists(ctx, r.durableKey(visitorID, elementID)).Result()
		return n > 0, err
	case engine.CapOncePerSession:
		n, err := r.client.Exists(ctx, r.sessionKey(visitorID, elementID)).Result()
		return n > 0, err
	case engine.CapEveryNDays:
		v, err := r.client.Get(ctx, r.durableKey(visitorID, elementID)).Result()
		if err == backend.Nil {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return cappedAt(v, rule.Days, now), nil
	default:
		return false, nil
	}
}

func (r *Redis) RecordDismissal(ctx context.Context, visitorID, elementID string, rule engine.CapRule, now time.Time) error {
	switch rule.Policy {
	case engine.CapOnce:
		return r.client.Set(ctx, r.durableKey(visitorID, elementID), "1", 0).Err()
	case engine.CapOncePerSession:
		pipe := r.client.Pipeline()
		key := r.sessionKey(visitorID, elementID)
		pipe.Set(ctx, key, "1", r.sessionTTL)
		pipe.SAdd(ctx, r.sessionIndexKey(visitorID), key)
		pipe.Expire(ctx, r.sessionIndexKey(visitorID), r.sessionTTL)
		_, err := pipe.Exec(ctx)
		return err
	case engine.CapEveryNDays:
		days := rule.Days
		if days <= 0 {
			days = 1
		}
		ttl := time.Duration(days) * 24 * time.Hour
		return r.client.Set(ctx, r.durableKey(visitorID, elementID), now.Format(time.RFC3339Nano), ttl).Err()
	}
	return nil
}

func (r *Redis) ResetSession(ctx context.Context, visitorID string) error {
	keys, err := r.client.SMembers(ctx, r.sessionIndexKey(visitorID)).Result()
	if err != nil && err != backend.Nil {
		return err
	}
	keys = append(keys, r.sessionIndexKey(visitorID))
	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
