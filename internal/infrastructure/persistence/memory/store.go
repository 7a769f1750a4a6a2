package memory

import (
	"context"
	"sync"

	"probaho-server/internal/domain/storage"
)

// Store プロセス内メモリのストレージ
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewStore 新しいStoreを作成
func NewStore() *Store {
	return &Store{items: make(map[string]string)}
}

// GetItem 値を取得
func (s *Store) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return "", storage.ErrItemNotFound
	}
	return v, nil
}

// SetItem 値を保存
func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

// RemoveItem 値を削除
func (s *Store) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

// RemoveItems 複数の値をまとめて削除
func (s *Store) RemoveItems(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}

// HealthCheck 常に成功
func (s *Store) HealthCheck(context.Context) error {
	return nil
}

// Len 保存件数を返す
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
