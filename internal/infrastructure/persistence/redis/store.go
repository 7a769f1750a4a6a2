package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"probaho-server/internal/domain/storage"
	"probaho-server/internal/infrastructure/config"
)

// commander Storeが使うRedisコマンド
type commander interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

// NewClient 設定からRedisクライアントを作成
func NewClient(cfg *config.RedisConfig) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Store Redis実装のStorage（値に有効期限は付けない）
type Store struct {
	client commander
}

// NewStore 新しいStoreを作成
func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

// GetItem 値を取得
func (s *Store) GetItem(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", storage.ErrItemNotFound
		}
		return "", fmt.Errorf("failed to get item: %w", err)
	}
	return v, nil
}

// SetItem 値を保存
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set item: %w", err)
	}
	return nil
}

// RemoveItem 値を削除
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	return s.RemoveItems(ctx, key)
}

// RemoveItems 複数の値を1コマンドで削除
func (s *Store) RemoveItems(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to remove items: %w", err)
	}
	return nil
}

// HealthCheck 接続状態を確認
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
