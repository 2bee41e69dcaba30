package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ROHAN-089/namma-city/internal/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// IssueLocker serializes per-issue SLA writes across overlapping sweeps and
// manual priority changes. Locks are advisory SET NX keys with a TTL so a
// crashed holder never wedges an issue; the conditional update on
// last_escalation_check remains the correctness backstop.
type IssueLocker interface {
	// TryLock attempts to take the lock for an issue. It returns a release
	// function and true on success, or false when another holder owns it.
	TryLock(ctx context.Context, issueID string) (func(), bool)
}

type redisIssueLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0`)

// NewIssueLocker builds a redis-backed locker.
func NewIssueLocker(r *Redis, ttl time.Duration, logger *zap.Logger) IssueLocker {
	return &redisIssueLocker{client: r.Client, ttl: ttl, logger: logger}
}

func (l *redisIssueLocker) TryLock(ctx context.Context, issueID string) (func(), bool) {
	if l.client == nil {
		// No redis configured: fall through to CAS-only protection.
		return func() {}, true
	}

	key := "sla:lock:" + issueID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		l.logger.Warn("issue lock unavailable", zap.String("issue_id", issueID), zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	release := func() {
		if _, err := releaseScript.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Result(); err != nil {
			l.logger.Warn("issue lock release failed", zap.String("issue_id", issueID), zap.Error(err))
		}
	}
	return release, true
}
