package eligibility

import (
	"context"
	"fmt"
	"ouvidoria/backend/internal/config"

	"github.com/redis/go-redis/v9"
)

// setMembership is the slice of the go-redis client RedisSet needs.
type setMembership interface {
	SIsMember(ctx context.Context, key string, member interface{}) *redis.BoolCmd
}

// RedisSet checks eligibility with SISMEMBER against a Redis set maintained by
// the enrollment system.
type RedisSet struct {
	client setMembership
	key    string
}

// NewRedisSet returns a RedisSet reading key; an empty key uses the default.
func NewRedisSet(client setMembership, key string) *RedisSet {
	if key == "" {
		key = config.DefaultEligibilityRedisKey
	}
	return &RedisSet{client: client, key: key}
}

func (r *RedisSet) IsEligible(ctx context.Context, enrollmentID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.key, enrollmentID).Result()
	if err != nil {
		return false, fmt.Errorf("redis eligibility check: %w", err)
	}
	return ok, nil
}
