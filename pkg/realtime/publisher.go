package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher delivers event payloads to per-user channels over Redis pub/sub.
// Delivery is best-effort: subscribers that are offline simply miss the
// message, the persisted notification row remains the source of truth.
type Publisher struct {
	client     *redis.Client
	channelFmt string
}

// NewPublisher constructs a Publisher. channelFmt must contain a single %s
// verb for the recipient user ID, e.g. "notify:user:%s".
func NewPublisher(client *redis.Client, channelFmt string) *Publisher {
	if channelFmt == "" {
		channelFmt = "notify:user:%s"
	}
	return &Publisher{client: client, channelFmt: channelFmt}
}

// Publish marshals the payload and publishes it on the recipient's channel.
func (p *Publisher) Publish(ctx context.Context, userID string, payload interface{}) error {
	if p == nil || p.client == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal realtime payload: %w", err)
	}

	channel := fmt.Sprintf(p.channelFmt, userID)
	if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}

	return nil
}
