package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"probaho-server/internal/domain/ledger_event"
	"probaho-server/internal/domain/storage"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// Option Serviceのオプション
type Option func(*Service)

// WithClock 現在時刻の取得関数を差し替える
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation 日次集計に使うタイムゾーンを指定
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithPublisher 変更イベントの配信先を指定
func WithPublisher(p ledger_event.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// Service ユーザー1人分の台帳（ウォレット・取引履歴・入金記録・設定）
// 同じユーザーのServiceはロックと購読者を共有する
type Service struct {
	mu     *sync.Mutex
	hub    *hub
	userID string
	store  storage.Storage

	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
	publisher ledger_event.Publisher
	now       func() time.Time
	loc       *time.Location
}

// NewService 新しいServiceを作成（キーは"<userID>:"で名前空間化される）
func NewService(userID string, store storage.Storage, logger *otelinfra.Logger, metrics *otelinfra.Metrics, opts ...Option) *Service {
	s := &Service{
		userID:    userID,
		store:     storage.WithPrefix(store, userID),
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("ledger-service"),
		publisher: ledger_event.NopPublisher{},
		now:       time.Now,
		loc:       time.Local,
		mu:        &sync.Mutex{},
		hub:       newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID ユーザーIDを返す
func (s *Service) UserID() string {
	return s.userID
}

// Subscribe キーの変更を購読する。戻り値で購読を解除する
func (s *Service) Subscribe(key storage.Key, listener Listener) func() {
	return s.hub.subscribe(s.userID, key, listener)
}

// batch 1回の操作で発生した通知
type batch struct {
	notifications []Notification
}

func (b *batch) add(key storage.Key, payload []byte) {
	b.notifications = append(b.notifications, Notification{Key: key, Payload: payload})
}

// withLock ロック中にfnを実行し、解放後に通知を配る
func (s *Service) withLock(ctx context.Context, fn func(b *batch) error) error {
	b := &batch{}

	s.mu.Lock()
	err := fn(b)
	s.mu.Unlock()

	s.dispatch(ctx, b)
	return err
}

// withRollback withLockと同様だが、書き込み後にfnが失敗したらkeysを実行前の値に戻し通知も破棄する
func (s *Service) withRollback(ctx context.Context, keys []storage.Key, fn func(b *batch) error) error {
	return s.withLock(ctx, func(b *batch) error {
		snap, err := s.snapshot(ctx, keys)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			if len(b.notifications) > 0 {
				s.restore(ctx, snap)
				b.notifications = nil
			}
			return err
		}
		return nil
	})
}

// snapshot キーの生の値を読む（未保存はnil）
func (s *Service) snapshot(ctx context.Context, keys []storage.Key) (map[storage.Key]*string, error) {
	snap := make(map[storage.Key]*string, len(keys))
	for _, key := range keys {
		v, err := s.store.GetItem(ctx, key.String())
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				snap[key] = nil
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		snap[key] = &v
	}
	return snap, nil
}

// restore snapshotの値に書き戻す（失敗はログのみ）
func (s *Service) restore(ctx context.Context, snap map[storage.Key]*string) {
	for key, v := range snap {
		var err error
		if v == nil {
			err = s.store.RemoveItem(ctx, key.String())
		} else {
			err = s.store.SetItem(ctx, key.String(), *v)
		}
		if err != nil {
			s.logger.Error(ctx, "Failed to roll back storage key", err, map[string]interface{}{
				"user_id": s.userID,
				"key":     key.String(),
			})
		}
	}
	s.logger.Warn(ctx, "Rolled back partial ledger write", map[string]interface{}{
		"user_id": s.userID,
		"keys":    len(snap),
	})
}

func (s *Service) dispatch(ctx context.Context, b *batch) {
	for _, n := range b.notifications {
		n.UserID = s.userID

		for _, l := range s.hub.listenersFor(s.userID, n.Key) {
			l(n)
		}

		event := ledger_event.Event{
			ID:         ulid.Make().String(),
			UserID:     s.userID,
			Key:        n.Key.String(),
			OccurredAt: s.now().UTC(),
			Payload:    n.Payload,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn(ctx, "Failed to publish ledger event", map[string]interface{}{
				"user_id": s.userID,
				"key":     n.Key.String(),
				"error":   err.Error(),
			})
		}
	}
}

// hub ユーザー・キーごとの購読者
type hub struct {
	mu        sync.RWMutex
	listeners map[string]map[storage.Key]map[uint64]Listener
	nextID    uint64
}

func newHub() *hub {
	return &hub{listeners: make(map[string]map[storage.Key]map[uint64]Listener)}
}

func (h *hub) subscribe(userID string, key storage.Key, listener Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.listeners[userID] == nil {
		h.listeners[userID] = make(map[storage.Key]map[uint64]Listener)
	}
	if h.listeners[userID][key] == nil {
		h.listeners[userID][key] = make(map[uint64]Listener)
	}
	h.listeners[userID][key][id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[userID][key], id)
			if len(h.listeners[userID][key]) == 0 {
				delete(h.listeners[userID], key)
			}
			if len(h.listeners[userID]) == 0 {
				delete(h.listeners, userID)
			}
		})
	}
}

func (h *hub) listenersFor(userID string, key storage.Key) []Listener {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Listener, 0, len(h.listeners[userID][key]))
	for _, l := range h.listeners[userID][key] {
		out = append(out, l)
	}
	return out
}

// size 購読者のいるユーザー数
func (h *hub) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
