package ledger

import (
	"errors"
	"hash/fnv"
	"sync"

	"probaho-server/internal/domain/storage"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// lockStripes ユーザーロックの本数
const lockStripes = 256

// ErrInvalidUserID ユーザーIDが空
var ErrInvalidUserID = errors.New("user id is required")

// Registry ユーザーごとのServiceを作る
// Serviceは保持せず、ロックはユーザーIDのハッシュで選んだストライプを、購読者は共有のhubを使う
type Registry struct {
	locks   [lockStripes]sync.Mutex
	hub     *hub
	store   storage.Storage
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	opts    []Option
}

// NewRegistry 新しいRegistryを作成
func NewRegistry(store storage.Storage, logger *otelinfra.Logger, metrics *otelinfra.Metrics, opts ...Option) *Registry {
	return &Registry{
		hub:     newHub(),
		store:   store,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// For ユーザーのServiceを返す
func (r *Registry) For(userID string) (*Service, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	s := NewService(userID, r.store, r.logger, r.metrics, r.opts...)
	s.mu = &r.locks[stripe(userID)]
	s.hub = r.hub
	return s, nil
}

// Storage 共有のストレージを返す
func (r *Registry) Storage() storage.Storage {
	return r.store
}

func stripe(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % lockStripes)
}
