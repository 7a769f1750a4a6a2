package mfs

import "errors"

var (
	// ErrInvalidProvider 無効なMFSプロバイダーエラー
	ErrInvalidProvider = errors.New("invalid mfs provider")
	// ErrProviderNotSupported 入金に対応していないプロバイダーエラー
	ErrProviderNotSupported = errors.New("mfs provider not supported for add money")
	// ErrInvalidAccount 無効な口座番号エラー
	ErrInvalidAccount = errors.New("invalid mfs account number")
	// ErrInvalidPhoneNumber 無効な電話番号エラー
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	// ErrAmountBelowMinimum 最低金額未満エラー
	ErrAmountBelowMinimum = errors.New("amount below provider minimum")
	// ErrAmountAboveMaximum 最高金額超過エラー
	ErrAmountAboveMaximum = errors.New("amount above provider maximum")
	// ErrDailyLimitExceeded 日次上限超過エラー
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")
	// ErrInvalidAmount 無効な金額エラー
	ErrInvalidAmount = errors.New("invalid amount")
)
