package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"ouvidoria/backend/internal/config"
	"ouvidoria/backend/internal/models"
	"time"

	"github.com/redis/go-redis/v9"
)

// publisher is the part of the go-redis client RedisPublisher uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher announces complaints as JSON ComplaintEvents on a Redis
// Pub/Sub channel, for other services and registry replicas.
type RedisPublisher struct {
	client  publisher
	channel string
	now     func() time.Time
}

// NewRedisPublisher publishes on channel; an empty channel uses config.NewComplaintChannel.
func NewRedisPublisher(client publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = config.NewComplaintChannel
	}
	return &RedisPublisher{client: client, channel: channel, now: time.Now}
}

func (r *RedisPublisher) Notify(ctx context.Context, protocol, category string) error {
	msgBytes, err := json.Marshal(models.NewComplaintEvent(protocol, category, r.now()))
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, string(msgBytes)).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return nil
}
