package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"probaho-server/internal/domain/ledger_event"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

func testEvent() ledger_event.Event {
	return ledger_event.Event{
		ID:         "01HXYZ",
		UserID:     "1",
		Key:        "probaho_wallet",
		OccurredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Payload:    json.RawMessage(`{"balance":100}`),
	}
}

type fakeRedisPublisher struct {
	channel string
	message interface{}
	err     error
}

func (f *fakeRedisPublisher) Publish(_ context.Context, channel string, message interface{}) *goredis.IntCmd {
	f.channel = channel
	f.message = message
	return goredis.NewIntResult(1, f.err)
}

func TestRedisPublisher_Publish(t *testing.T) {
	f := &fakeRedisPublisher{}
	p := &RedisPublisher{client: f, channel: "probaho.ledger"}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	assert.Equal(t, "probaho.ledger", f.channel)

	var got ledger_event.Event
	require.NoError(t, json.Unmarshal(f.message.([]byte), &got))
	assert.Equal(t, "1", got.UserID)
	assert.Equal(t, "probaho_wallet", got.Key)

	f.err = errors.New("connection refused")
	assert.Error(t, p.Publish(context.Background(), testEvent()))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	producer := mocks.NewSyncProducer(t, cfg)

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got ledger_event.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.ID != "01HXYZ" {
			return errors.New("unexpected event id")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisher(producer, "probaho.ledger")
	assert.NoError(t, p.Publish(context.Background(), testEvent()))
	assert.ErrorIs(t, p.Publish(context.Background(), testEvent()), sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
}

type recordingPublisher struct {
	events []ledger_event.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event ledger_event.Event) error {
	r.events = append(r.events, event)
	return r.err
}

type publishSpy struct {
	results map[string][]bool
}

func (s *publishSpy) RecordEventPublish(_ context.Context, sink string, success bool) {
	if s.results == nil {
		s.results = make(map[string][]bool)
	}
	s.results[sink] = append(s.results[sink], success)
}

func TestMultiPublisher_Publish(t *testing.T) {
	ok := &recordingPublisher{}
	broken := &recordingPublisher{err: errors.New("down")}
	spy := &publishSpy{}

	m := NewMultiPublisher(spy, Sink{Name: "redis", Publisher: broken}, Sink{Name: "kafka", Publisher: ok})
	assert.Equal(t, 2, m.Len())

	err := m.Publish(context.Background(), testEvent())

	// 失敗した配信先があっても残りへは配信する
	assert.Error(t, err)
	assert.Len(t, ok.events, 1)
	assert.Len(t, broken.events, 1)
	assert.Equal(t, map[string][]bool{"redis": {false}, "kafka": {true}}, spy.results)

	assert.NoError(t, NewMultiPublisher(nil).Publish(context.Background(), testEvent()))
}

func TestBreakerPublisher_Publish(t *testing.T) {
	logger := otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil)
	inner := &recordingPublisher{err: errors.New("down")}
	p := NewBreakerPublisher("kafka", inner, &config.BreakerConfig{MaxFailures: 1, Timeout: time.Minute}, logger)

	assert.Error(t, p.Publish(context.Background(), testEvent()))
	assert.ErrorIs(t, p.Publish(context.Background(), testEvent()), gobreaker.ErrOpenState)
	assert.Len(t, inner.events, 1)
}
