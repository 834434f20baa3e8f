package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "roomkeeper:attempts:"
	fieldCount       = "count"
	fieldLastAttempt = "last"
)

// RedisAttemptStore keeps attempt records in redis hashes so several server
// instances throttle the same client together. Keys expire after ttl, which
// should exceed the longest configured lockout.
type RedisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	return &RedisAttemptStore{client: client, ttl: ttl}
}

func (s *RedisAttemptStore) key(ip string) string {
	return redisKeyPrefix + ip
}

func (s *RedisAttemptStore) Get(ctx context.Context, ip string) (*Attempt, error) {
	vals, err := s.client.HGetAll(ctx, s.key(ip)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	count, err := strconv.Atoi(vals[fieldCount])
	if err != nil {
		return nil, fmt.Errorf("redis error: bad count for %s: %w", ip, err)
	}
	ms, err := strconv.ParseInt(vals[fieldLastAttempt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: bad timestamp for %s: %w", ip, err)
	}

	return &Attempt{Count: count, LastAttempt: time.UnixMilli(ms)}, nil
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, ip string, at time.Time) (Attempt, error) {
	key := s.key(ip)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, fieldCount, 1)
		pipe.HSet(ctx, key, fieldLastAttempt, at.UnixMilli())
		pipe.PExpire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return Attempt{}, fmt.Errorf("redis error: %w", err)
	}

	return Attempt{Count: int(incr.Val()), LastAttempt: time.UnixMilli(at.UnixMilli())}, nil
}

func (s *RedisAttemptStore) Clear(ctx context.Context, ip string) error {
	if err := s.client.Del(ctx, s.key(ip)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
