package profile

import "errors"

var (
	// ErrInvalidSettings 無効な設定エラー
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidUser 無効なユーザーエラー
	ErrInvalidUser = errors.New("invalid user")
	// ErrUserNotFound ユーザーが見つからないエラー
	ErrUserNotFound = errors.New("user not found")
)
