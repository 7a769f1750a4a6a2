package ledger_event

import (
	"context"
	"encoding/json"
	"time"
)

// Event 台帳の変更通知
type Event struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher 台帳イベントの配信先
type Publisher interface {
	// Publish イベントを配信
	Publish(ctx context.Context, event Event) error
}

// NopPublisher 何もしないPublisher
type NopPublisher struct{}

// Publish 何もしない
func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
