package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/escalation"
)

// EscalationKey holds the latest escalated set.
const EscalationKey = "escalations:current"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. It returns nil when no address
// is configured.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Warn("REDIS_ADDR not provided; escalation cache disabled")
		return nil
	}

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

// CachedEscalations is the JSON document stored under EscalationKey.
type CachedEscalations struct {
	ComputedAt time.Time `json:"computedAt"`
	Scanned    int       `json:"scanned"`
	Escalated  []string  `json:"escalated"`
}

// EscalationCache mirrors monitor results into Redis so other replicas and dashboards can read
// them without recomputing.
type EscalationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEscalationCache wraps r. A nil r yields a nil cache.
func NewEscalationCache(r *Redis, ttl time.Duration) *EscalationCache {
	if r == nil || r.Client == nil {
		return nil
	}
	return &EscalationCache{client: r.Client, ttl: ttl}
}

// Publish implements escalation.Publisher.
func (c *EscalationCache) Publish(ctx context.Context, result escalation.Result) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(EncodeEscalations(result))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, EscalationKey, payload, c.ttl).Err()
}

// Load returns the cached document, or false when the key is missing or expired.
func (c *EscalationCache) Load(ctx context.Context) (CachedEscalations, bool, error) {
	var doc CachedEscalations
	if c == nil {
		return doc, false, nil
	}
	raw, err := c.client.Get(ctx, EscalationKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, false, err
	}
	return doc, true, nil
}

// EncodeEscalations converts a monitor result to its cached form.
func EncodeEscalations(result escalation.Result) CachedEscalations {
	return CachedEscalations{
		ComputedAt: result.ComputedAt.UTC(),
		Scanned:    result.Scanned,
		Escalated:  result.Escalated.Sorted(),
	}
}
