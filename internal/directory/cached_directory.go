package directory

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "cadence:directory:"

// CachedDirectory keeps resolved names in Redis. Cache errors are logged
// and the lookup falls through to the wrapped directory.
type CachedDirectory struct {
	next   Directory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDirectory wraps next with a Redis cache.
func NewCachedDirectory(next Directory, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{next: next, client: client, ttl: ttl, logger: logger}
}

// DisplayName returns the cached name or fetches and caches it.
func (d *CachedDirectory) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	key := cacheKeyPrefix + id.String()

	name, err := d.client.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, redis.Nil) {
		d.logger.WarnContext(ctx, "directory cache read failed", "participant_id", id, "error", err)
	}

	name, err = d.next.DisplayName(ctx, id)
	if err != nil {
		return "", err
	}

	if err := d.client.Set(ctx, key, name, d.ttl).Err(); err != nil {
		d.logger.WarnContext(ctx, "directory cache write failed", "participant_id", id, "error", err)
	}
	return name, nil
}
