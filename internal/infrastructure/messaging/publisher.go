package messaging

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"

	"probaho-server/internal/domain/ledger_event"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/resilience"
)

// PublishRecorder 配信結果の記録先
type PublishRecorder interface {
	RecordEventPublish(ctx context.Context, sink string, success bool)
}

// Sink 名前付きの配信先
type Sink struct {
	Name      string
	Publisher ledger_event.Publisher
}

// MultiPublisher 複数の配信先へ順に配信
type MultiPublisher struct {
	sinks    []Sink
	recorder PublishRecorder
}

// NewMultiPublisher 新しいMultiPublisherを作成
func NewMultiPublisher(recorder PublishRecorder, sinks ...Sink) *MultiPublisher {
	return &MultiPublisher{sinks: sinks, recorder: recorder}
}

// Publish 全ての配信先へ配信し、失敗はまとめて返す
func (m *MultiPublisher) Publish(ctx context.Context, event ledger_event.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		err := sink.Publisher.Publish(ctx, event)
		if m.recorder != nil {
			m.recorder.RecordEventPublish(ctx, sink.Name, err == nil)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len 配信先の数を返す
func (m *MultiPublisher) Len() int {
	return len(m.sinks)
}

// BreakerPublisher ブレーカーで保護したPublisher
type BreakerPublisher struct {
	inner ledger_event.Publisher
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerPublisher innerをブレーカーで包む
func NewBreakerPublisher(name string, inner ledger_event.Publisher, cfg *config.BreakerConfig, logger *otelinfra.Logger) *BreakerPublisher {
	return &BreakerPublisher{
		inner: inner,
		cb:    resilience.NewBreaker("publisher-"+name, cfg, logger),
	}
}

// Publish 配信
func (p *BreakerPublisher) Publish(ctx context.Context, event ledger_event.Event) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.inner.Publish(ctx, event)
	})
	return err
}
