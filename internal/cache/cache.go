package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/utakatalp/season-simulator/internal/league"
)

// ErrMiss is returned when a key is absent or Redis cannot be consulted.
var ErrMiss = errors.New("cache miss")

// Config contains configuration for the projection cache.
type Config struct {
	DefaultTTL       time.Duration
	KeyPrefix        string
	BreakerThreshold uint32
	BreakerTimeout   time.Duration
}

// Cache stores JSON-encoded projections in Redis behind a circuit breaker. While the
// breaker is open every read is a miss and every write is dropped.
type Cache struct {
	client     *redis.Client
	breaker    *gobreaker.CircuitBreaker
	defaultTTL time.Duration
	keyPrefix  string
	logger     *logrus.Entry
}

// New wraps an existing client.
func New(client *redis.Client, config Config, logger *logrus.Logger) *Cache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "season-sim"
	}
	if config.BreakerThreshold == 0 {
		config.BreakerThreshold = 5
	}
	entry := logger.WithField("component", "projection_cache")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-cache",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	})

	return &Cache{
		client:     client,
		breaker:    cb,
		defaultTTL: config.DefaultTTL,
		keyPrefix:  config.KeyPrefix,
		logger:     entry,
	}
}

// Connect parses a redis:// URL, verifies the connection and returns a Cache.
func Connect(ctx context.Context, redisURL string, config Config, logger *logrus.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := New(client, config, logger)
	c.logger.WithFields(logrus.Fields{
		"default_ttl": config.DefaultTTL,
		"key_prefix":  c.keyPrefix,
	}).Info("Projection cache initialized")
	return c, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// ProjectionKey identifies the projection of a season under given parameters.
func (c *Cache) ProjectionKey(season int, params league.SimulationParams, playoffTeams int) string {
	return fmt.Sprintf("%s:projection:%d:i%d:w%d:a%t:k%d",
		c.keyPrefix, season, params.Iterations, params.StartWeek, params.UseActualResults, playoffTeams)
}

// RunKey identifies a persisted simulation run.
func (c *Cache) RunKey(runID string) string {
	return fmt.Sprintf("%s:run:%s", c.keyPrefix, runID)
}

// SeasonPattern matches every projection key of a season.
func (c *Cache) SeasonPattern(season int) string {
	return fmt.Sprintf("%s:projection:%d:*", c.keyPrefix, season)
}

// Get decodes the value at key into dest. Absent keys and an open breaker yield ErrMiss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	start := time.Now()
	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	switch {
	case errors.Is(err, redis.Nil):
		c.logger.WithField("key", key).Debug("Cache miss")
		return ErrMiss
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.WithField("key", key).Debug("Cache bypassed, circuit open")
		return ErrMiss
	case err != nil:
		c.logger.WithError(err).WithField("key", key).Error("Failed to read from cache")
		return fmt.Errorf("reading %s: %w", key, err)
	}

	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal cached value")
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	c.logger.WithFields(logrus.Fields{
		"key":           key,
		"response_time": time.Since(start),
	}).Debug("Cache hit")
	return nil
}

// Set stores value at key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.defaultTTL).Err()
	})
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to write to cache")
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// InvalidateSeason deletes every cached projection of a season.
func (c *Cache) InvalidateSeason(ctx context.Context, season int) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		var cursor uint64
		for {
			keys, next, err := c.client.Scan(ctx, cursor, c.SeasonPattern(season), 100).Result()
			if err != nil {
				return nil, err
			}
			if len(keys) > 0 {
				if err := c.client.Del(ctx, keys...).Err(); err != nil {
					return nil, err
				}
			}
			if next == 0 {
				return nil, nil
			}
			cursor = next
		}
	})
	if err != nil {
		return fmt.Errorf("invalidating season %d: %w", season, err)
	}
	return nil
}

// State reports the breaker state for health checks.
func (c *Cache) State() gobreaker.State {
	return c.breaker.State()
}
