package storage

import (
	"context"
	"errors"
)

// ErrItemNotFound キーが存在しないエラー
var ErrItemNotFound = errors.New("storage item not found")

// Key 保存キー
type Key string

const (
	KeyWallet       Key = "probaho_wallet"
	KeyTransactions Key = "probaho_transactions"
	KeyTopUps       Key = "probaho_topups"
	KeyUser         Key = "probaho_user"
	KeySettings     Key = "probaho_settings"
)

// AllKeys 全キーを返す
func AllKeys() []Key {
	return []Key{KeyWallet, KeyTopUps, KeyTransactions, KeyUser, KeySettings}
}

// String 文字列表現を返す
func (k Key) String() string {
	return string(k)
}

// Valid 既知のキーかどうかを返す
func (k Key) Valid() bool {
	for _, known := range AllKeys() {
		if k == known {
			return true
		}
	}
	return false
}

// Storage キーと文字列値を保持するストレージ
type Storage interface {
	// GetItem 値を取得（存在しない場合はErrItemNotFound）
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem 値を保存
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem 値を削除（存在しなくてもエラーにしない）
	RemoveItem(ctx context.Context, key string) error

	// HealthCheck 接続状態を確認
	HealthCheck(ctx context.Context) error
}

// BatchRemover 複数キーをまとめて削除できるストレージ
type BatchRemover interface {
	RemoveItems(ctx context.Context, keys ...string) error
}
