package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dormhub-backend/internal/logger"

	"github.com/redis/go-redis/v9"
)

const inFlightMarker = "in-flight"

type State int

const (
	// StateAcquired means the caller owns the key and must Complete or Release it.
	StateAcquired State = iota
	// StateInFlight means another request with the same key has not finished.
	StateInFlight
	// StateDone means a response was stored and should be replayed.
	StateDone
)

// Record is a stored response.
type Record struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

type Store interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (State, *Record, error)
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "dormhub:idempotency"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Acquire(ctx context.Context, key string, ttl time.Duration) (State, *Record, error) {
	logger.ExternalServiceCall("redis", "Acquire", "key", key)
	// The marker can expire between SetNX and Get; one more round settles it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.client.SetNX(ctx, s.key(key), inFlightMarker, ttl).Result()
		if err != nil {
			logger.ExternalServiceResult("redis", "Acquire", err)
			return 0, nil, fmt.Errorf("acquire idempotency key: %w", err)
		}
		if ok {
			return StateAcquired, nil, nil
		}
		raw, err := s.client.Get(ctx, s.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			logger.ExternalServiceResult("redis", "Acquire", err)
			return 0, nil, fmt.Errorf("read idempotency key: %w", err)
		}
		state, rec, err := decode(raw)
		logger.ExternalServiceResult("redis", "Acquire", err)
		return state, rec, err
	}
	return StateInFlight, nil, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), raw, ttl).Err(); err != nil {
		logger.ExternalServiceResult("redis", "Complete", err)
		return fmt.Errorf("store idempotent response: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		logger.ExternalServiceResult("redis", "Release", err)
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func decode(raw string) (State, *Record, error) {
	if raw == inFlightMarker {
		return StateInFlight, nil, nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return 0, nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return StateDone, &rec, nil
}
