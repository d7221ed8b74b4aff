package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChannelPrefix prefixes every pub/sub channel so subscribers can pattern
// match "events:*" and recover the group key from the channel name.
const ChannelPrefix = "events:"

const publishTimeout = 2 * time.Second

// RedisPublisher publishes events over Redis pub/sub. Publishes happen
// synchronously in call order, so within one group subscribers observe
// events in the same order the state mutations were committed.
type RedisPublisher struct {
	rdc *redis.Client
}

var _ Publisher = (*RedisPublisher)(nil)

func NewRedisPublisher(rdc *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdc: rdc}
}

func (p *RedisPublisher) Publish(group, eventType string, body any) {
	payload, err := json.Marshal(Envelope{Type: eventType, Body: body})
	if err != nil {
		zap.L().Error("event_marshal_failed",
			zap.String("group", group), zap.String("event", eventType), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.rdc.Publish(ctx, ChannelPrefix+group, payload).Err(); err != nil {
		zap.L().Warn("event_publish_failed",
			zap.String("group", group), zap.String("event", eventType), zap.Error(err))
	}
}
