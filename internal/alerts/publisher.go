package alerts

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/govcon-cli/internal/model"
)

// redisPublisher is the subset of *redis.Client used for publishing.
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes each alert match as a JSON message on a channel.
type RedisPublisher struct {
	rdb     redisPublisher
	channel string
}

// NewRedisPublisher creates a RedisPublisher over an existing client.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, eris.Wrap(err, "alerts: parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "alerts: redis ping")
	}
	return client, nil
}

// Publish sends every match, stopping at the first failure.
func (p *RedisPublisher) Publish(ctx context.Context, matches []model.AlertMatch) error {
	for _, m := range matches {
		payload, err := json.Marshal(m)
		if err != nil {
			return eris.Wrap(err, "alerts: marshal match")
		}
		if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
			return eris.Wrapf(err, "alerts: publish match for alert %s", m.AlertID)
		}
	}
	return nil
}
