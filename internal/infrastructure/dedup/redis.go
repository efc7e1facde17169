package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/config"
)

const eventKeyPrefix = "provisioning:event:"

// RedisGuard is the fast-path duplicate-event filter. It front-runs the
// durable event store: a hit here skips a database round trip, a miss or a
// Redis outage falls through to the store. Entries expire after the
// configured TTL, which only needs to outlast the billing provider's
// redelivery window.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisGuard connects to Redis and verifies the connection with a short
// ping before accepting traffic.
func NewRedisGuard(cfg config.RedisConfig, logger *zap.Logger) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.DedupTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	logger.Info("Connected to redis duplicate guard",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", ttl))

	return &RedisGuard{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Seen reports whether the event ID has been marked. It is a pure read:
// redeliveries of an event whose processing failed must fall through to
// the durable store and be reprocessed, so only Mark records IDs.
func (g *RedisGuard) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := g.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis duplicate check failed: %w", err)
	}

	return n > 0, nil
}

// Mark records the event ID after processing has fully succeeded.
func (g *RedisGuard) Mark(ctx context.Context, eventID string) error {
	if err := g.client.Set(ctx, eventKeyPrefix+eventID, 1, g.ttl).Err(); err != nil {
		return fmt.Errorf("redis duplicate mark failed: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
