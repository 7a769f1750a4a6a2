package messaging

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"probaho-server/internal/domain/ledger_event"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// Open 設定のドライバーで配信先を組み立てる
// 戻り値のcloseは作成したプロデューサーを閉じる
func Open(cfg *config.Config, redisClient goredis.UniversalClient, logger *otelinfra.Logger, recorder PublishRecorder) (ledger_event.Publisher, func() error, error) {
	noop := func() error { return nil }

	var sinks []Sink
	closeFn := noop

	useRedis := cfg.Events.Driver == "redis" || cfg.Events.Driver == "all"
	useKafka := cfg.Events.Driver == "kafka" || cfg.Events.Driver == "all"

	switch cfg.Events.Driver {
	case "none", "":
		return ledger_event.NopPublisher{}, noop, nil
	case "redis", "kafka", "all":
	default:
		return nil, nil, fmt.Errorf("unsupported events driver: %s", cfg.Events.Driver)
	}

	if useRedis {
		if redisClient == nil {
			return nil, nil, fmt.Errorf("redis client is required for events driver %s", cfg.Events.Driver)
		}
		pub := NewRedisPublisher(redisClient, cfg.Events.Channel)
		sinks = append(sinks, Sink{Name: "redis", Publisher: NewBreakerPublisher("redis", pub, &cfg.Breaker, logger)})
	}

	if useKafka {
		producer, err := NewSyncProducer(cfg.Events.KafkaBrokers)
		if err != nil {
			return nil, nil, err
		}
		pub := NewKafkaPublisher(producer, cfg.Events.KafkaTopic)
		sinks = append(sinks, Sink{Name: "kafka", Publisher: NewBreakerPublisher("kafka", pub, &cfg.Breaker, logger)})
		closeFn = pub.Close
	}

	return NewMultiPublisher(recorder, sinks...), closeFn, nil
}
