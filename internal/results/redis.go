package results

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"spam-trainer/internal/config"
	"spam-trainer/internal/domain"
	"spam-trainer/internal/metrics"
)

// BackendRedis keeps the slot in redis with a TTL.
const BackendRedis = "redis"

// RedisClient is the subset of redis used by the slot.
type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Close() error
}

var _ RedisClient = (*redisClient)(nil)

type redisClient struct {
	cli *redis.Client
}

// NewRedisClient dials redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.ResultsConfig) (RedisClient, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redisClient{cli: c}, nil
}

func (c *redisClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

func (c *redisClient) Get(ctx context.Context, key string) (string, error) {
	return c.cli.Get(ctx, key).Result()
}

func (c *redisClient) Del(ctx context.Context, keys ...string) error {
	return c.cli.Del(ctx, keys...).Err()
}

func (c *redisClient) Close() error { return c.cli.Close() }

// RedisStore keeps the slot under "spamDetectionResults:<session>".
type RedisStore struct {
	client RedisClient
	key    string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisStore scopes the slot to sessionID. ttl <= 0 stores without expiry.
func NewRedisStore(client RedisClient, sessionID string, ttl time.Duration, logger zerolog.Logger) *RedisStore {
	key := SlotKey
	if sessionID != "" {
		key += ":" + sessionID
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, key: key, ttl: ttl, logger: logger}
}

// Key returns the redis key of the slot.
func (s *RedisStore) Key() string { return s.key }

// Put overwrites the slot with the verbatim payload.
func (s *RedisStore) Put(ctx context.Context, result domain.JobResult) error {
	err := s.client.Set(ctx, s.key, []byte(result.Raw), s.ttl)
	metrics.IncResultStoreOp("put", BackendRedis, err == nil)
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("store training result")
		return err
	}
	return nil
}

// Get reads the slot; a missing key is reported as absent, not as an error.
func (s *RedisStore) Get(ctx context.Context) (domain.JobResult, bool, error) {
	val, err := s.client.Get(ctx, s.key)
	if errors.Is(err, redis.Nil) {
		metrics.IncResultStoreOp("get", BackendRedis, true)
		return domain.JobResult{}, false, nil
	}
	metrics.IncResultStoreOp("get", BackendRedis, err == nil)
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("load training result")
		return domain.JobResult{}, false, err
	}
	if val == "" {
		return domain.JobResult{}, false, nil
	}
	return domain.JobResult{Raw: []byte(val)}, true, nil
}

// Clear deletes the slot.
func (s *RedisStore) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.key)
	metrics.IncResultStoreOp("clear", BackendRedis, err == nil)
	return err
}

// Ping checks the backing connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Backend names this implementation.
func (s *RedisStore) Backend() string { return BackendRedis }
