package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bkoval/fitpulse/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
)

// keyPrefix namespaces all progression engine blobs in redis.
const keyPrefix = "fitpulse::"

// Store is the key-value capability the progression engine persists through.
// Get distinguishes "absent" from "storage failure" so that call sites can
// collapse both to defaults explicitly instead of through a catch-all.
type Store interface {
	Get(ctx context.Context, key string) (raw []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (_ []byte, _ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	cmd := s.redisClient.Get(ctx, keyPrefix+key)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get [%s]: %w", key, err)
	}

	return []byte(cmd.Val()), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "kvstore.set")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("key", key))

	if err := s.redisClient.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set [%s]: %w", key, err)
	}
	return nil
}

// GetJSON unmarshals the blob stored under key into dst.
// Returns found=false (and an untouched dst) when nothing is stored.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal [%s]: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal [%s]: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
