package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"probaho-server/internal/domain/ledger_event"
)

// redisPublishClient Pub/Subの送信に使うRedisコマンド
type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// RedisPublisher Redis Pub/Subへ台帳イベントを配信
type RedisPublisher struct {
	client  redisPublishClient
	channel string
}

// NewRedisPublisher 新しいRedisPublisherを作成
func NewRedisPublisher(client goredis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish イベントをJSONで配信
func (p *RedisPublisher) Publish(ctx context.Context, event ledger_event.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}
