package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"probaho-server/internal/domain/ledger_event"
)

// NewSyncProducer 同期プロデューサーを作成
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return producer, nil
}

// KafkaPublisher Kafkaトピックへ台帳イベントを配信
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher 新しいKafkaPublisherを作成
func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish ユーザーIDをキーにしてイベントを送信
func (p *KafkaPublisher) Publish(_ context.Context, event ledger_event.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID)},
			{Key: []byte("storage_key"), Value: []byte(event.Key)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}
	return nil
}

// Close プロデューサーを閉じる
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
