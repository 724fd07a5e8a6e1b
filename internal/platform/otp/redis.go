package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps codes in a Redis hash per record. Expiry is tracked in the
// hash rather than via key TTL so an expired code is distinguishable from one
// that was never generated.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore creates a store on top of an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: "otp"}
}

func (s *RedisStore) key(id uuid.UUID) string {
	return s.prefix + ":" + id.String()
}

// Issue stores a fresh code. The Redis key itself expires well after the code
// so expired entries still answer Verify with ErrExpired before being swept.
func (s *RedisStore) Issue(ctx context.Context, recordID uuid.UUID, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	key := s.key(recordID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"code", code,
		"expires_at", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10),
		"used", "0",
	)
	pipe.Expire(ctx, key, ttl*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks and consumes the code for the record.
func (s *RedisStore) Verify(ctx context.Context, recordID uuid.UUID, code string) error {
	key := s.key(recordID)
	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("load otp: %w", err)
	}
	if len(vals) == 0 {
		return ErrNotGenerated
	}
	if vals["used"] == "1" {
		return ErrAlreadyVerified
	}
	expiresAt, _ := strconv.ParseInt(vals["expires_at"], 10, 64)
	if expiresAt > 0 && time.Now().Unix() > expiresAt {
		return ErrExpired
	}
	if vals["code"] != code {
		return ErrInvalid
	}
	if err := s.rdb.HSet(ctx, key, "used", "1").Err(); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}
