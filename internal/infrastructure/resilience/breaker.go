package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// NewBreaker 設定からサーキットブレーカーを作成
// ignore に該当するエラーは失敗として数えない
func NewBreaker(name string, cfg *config.BreakerConfig, logger *otelinfra.Logger, ignore ...error) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			for _, target := range ignore {
				if errors.Is(err, target) {
					return true
				}
			}
			return false
		},
	})
}

// LatencyRecorder ストレージ操作時間の記録先
type LatencyRecorder interface {
	RecordStorageLatency(ctx context.Context, driver, operation string, duration float64)
}

// Storage ブレーカーとタイムアウトで保護したStorage
type Storage struct {
	inner   storage.Storage
	driver  string
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	latency LatencyRecorder
}

// NewStorage innerをブレーカーで包む
func NewStorage(inner storage.Storage, driver string, timeout time.Duration, cfg *config.BreakerConfig, logger *otelinfra.Logger, latency LatencyRecorder) *Storage {
	return &Storage{
		inner:   inner,
		driver:  driver,
		cb:      NewBreaker("storage-"+driver, cfg, logger, storage.ErrItemNotFound),
		timeout: timeout,
		latency: latency,
	}
}

// State ブレーカーの状態を返す
func (s *Storage) State() gobreaker.State {
	return s.cb.State()
}

// GetItem 値を取得
func (s *Storage) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.execute(ctx, "get", func(ctx context.Context) (interface{}, error) {
		return s.inner.GetItem(ctx, key)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SetItem 値を保存
func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	_, err := s.execute(ctx, "set", func(ctx context.Context) (interface{}, error) {
		return nil, s.inner.SetItem(ctx, key, value)
	})
	return err
}

// RemoveItem 値を削除
func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.execute(ctx, "remove", func(ctx context.Context) (interface{}, error) {
		return nil, s.inner.RemoveItem(ctx, key)
	})
	return err
}

// RemoveItems 複数の値を削除
func (s *Storage) RemoveItems(ctx context.Context, keys ...string) error {
	_, err := s.execute(ctx, "remove_many", func(ctx context.Context) (interface{}, error) {
		return nil, storage.RemoveAll(ctx, s.inner, keys...)
	})
	return err
}

// HealthCheck ブレーカーを通さずに接続状態を確認
func (s *Storage) HealthCheck(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	return s.inner.HealthCheck(ctx)
}

func (s *Storage) execute(ctx context.Context, operation string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	v, err := s.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if s.latency != nil {
		s.latency.RecordStorageLatency(ctx, s.driver, operation, time.Since(start).Seconds())
	}
	return v, err
}
