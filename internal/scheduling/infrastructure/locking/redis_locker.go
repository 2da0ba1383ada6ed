// Package locking provides a participant locker shared across instances.
package locking

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/application/services"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cadence:lock:participant:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig configures the Redis locker.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can block others.
	TTL time.Duration
	// WaitTimeout bounds how long Lock waits for a busy participant.
	WaitTimeout time.Duration
	// RetryInterval is the initial polling delay while waiting.
	RetryInterval time.Duration
}

// RedisLocker implements services.ParticipantLocker with SET NX PX keys.
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a new RedisLocker.
func NewRedisLocker(client *redis.Client, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 10 * time.Millisecond
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

// Lock acquires every participant key in order, or none.
func (l *RedisLocker) Lock(ctx context.Context, participantIDs ...uuid.UUID) (func(), error) {
	waitCtx := ctx
	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	token := uuid.NewString()
	var held []string
	for _, id := range services.OrderParticipants(participantIDs) {
		key := keyPrefix + id.String()
		if err := l.acquire(waitCtx, key, token); err != nil {
			l.release(held, token)
			return nil, fmt.Errorf("lock participant %s: %w", id, services.WaitError(ctx, err))
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	delay := l.cfg.RetryInterval
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("set %s: %w", key, err)
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if delay < 200*time.Millisecond {
			delay *= 2
		}
	}
}

// release runs detached from the caller's context so that a cancelled
// request still frees its keys.
func (l *RedisLocker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err(); err != nil {
			l.logger.Warn("failed to release participant lock", "key", keys[i], "error", err)
		}
	}
}

var _ services.ParticipantLocker = (*RedisLocker)(nil)
