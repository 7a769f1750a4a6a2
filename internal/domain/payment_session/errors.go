package payment_session

import "errors"

var (
	// ErrInvalidSignature 署名不一致エラー
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrEmptySecret シークレット未設定エラー
	ErrEmptySecret = errors.New("payment secret is empty")
	// ErrInvalidAmount 金額が数値でないエラー
	ErrInvalidAmount = errors.New("invalid payment amount")
)
