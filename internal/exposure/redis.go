package exposure

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix is the Redis key prefix for exposure hashes.
const DefaultKeyPrefix = "exposure:"

// RedisProvider reads exposure counts from Redis hashes keyed by user.
// Each hash maps clusterID to a recent exposure count maintained by the
// upstream exposure tracker.
type RedisProvider struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisProvider creates a provider backed by the given Redis client.
// An empty keyPrefix falls back to DefaultKeyPrefix.
func NewRedisProvider(client *redis.Client, keyPrefix string) *RedisProvider {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisProvider{client: client, keyPrefix: keyPrefix}
}

// HealthCheck pings Redis, satisfying the readiness probe contract.
func (p *RedisProvider) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// RecentClusterExposures fetches the user's exposure hash. Unparseable or
// negative values are dropped with a warning rather than failing the
// ranking call.
func (p *RedisProvider) RecentClusterExposures(ctx context.Context, userID string) (map[string]int, error) {
	key := p.keyPrefix + userID
	raw, err := p.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read exposure counts for %s: %w", key, err)
	}

	out := make(map[string]int, len(raw))
	for cluster, value := range raw {
		count, err := strconv.Atoi(value)
		if err != nil {
			slog.Warn("dropping unparseable exposure count",
				"key", key,
				"cluster", cluster,
				"value", value)
			continue
		}
		if count < 0 {
			count = 0
		}
		out[cluster] = count
	}
	return out, nil
}
