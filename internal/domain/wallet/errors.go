package wallet

import "errors"

var (
	// ErrWalletNotFound ウォレットが見つからないエラー
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInvalidWallet 無効なウォレットエラー
	ErrInvalidWallet = errors.New("invalid wallet")
	// ErrInsufficientBalance 残高不足エラー
	ErrInsufficientBalance = errors.New("insufficient balance")
)
