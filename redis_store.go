package lixi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps records as plain Redis strings under RedisKeyPrefix.
// Records have no TTL: rooms are kept until deleted explicitly.
type RedisStore struct {
	redisClient *redis.Client
	logger      Logger
	retry       retrier
}

// NewRedisStore creates a Redis backed store with the default retry settings
func NewRedisStore(redisClient *redis.Client, logger Logger) *RedisStore {
	return NewRedisStoreWithRetry(redisClient, logger, DefaultRetryAttempts, DefaultRetryInterval)
}

// NewRedisStoreWithRetry creates a Redis backed store with custom retry settings
func NewRedisStoreWithRetry(redisClient *redis.Client, logger Logger, retryAttempts int, retryDelay time.Duration) *RedisStore {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &RedisStore{
		redisClient: redisClient,
		logger:      logger,
		retry:       newRetrier(retryAttempts, retryDelay, logger),
	}
}

func redisKey(key string) string { return RedisKeyPrefix + key }

// Load returns the record stored under key; redis.Nil is reported as ok=false
func (s *RedisStore) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidParameters.WithDetails("empty key")
	}

	var (
		value string
		found bool
	)
	err := s.retry.do(ctx, fmt.Sprintf("load[%s]", key), func() error {
		v, err := s.redisClient.Get(ctx, redisKey(key)).Result()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	if err != nil {
		return "", false, ErrRedisConnectionFailed.WithCause(err).WithOperation("load")
	}

	return value, found, nil
}

// Save stores value under key without expiration
func (s *RedisStore) Save(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidParameters.WithDetails("empty key")
	}

	err := s.retry.do(ctx, fmt.Sprintf("save[%s]", key), func() error {
		return s.redisClient.Set(ctx, redisKey(key), value, 0).Err()
	})
	if err != nil {
		return ErrRedisConnectionFailed.WithCause(err).WithOperation("save")
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidParameters.WithDetails("empty key")
	}

	var deleted int64
	err := s.retry.do(ctx, fmt.Sprintf("remove[%s]", key), func() error {
		n, err := s.redisClient.Del(ctx, redisKey(key)).Result()
		deleted = n
		return err
	})
	if err != nil {
		return ErrRedisConnectionFailed.WithCause(err).WithOperation("remove")
	}

	if deleted == 0 {
		s.logger.Debug("Key did not exist: key=%s", key)
	}
	return nil
}

// Ping checks connectivity to Redis
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redisClient.Ping(ctx).Err()
}
