package transaction

import "errors"

var (
	// ErrTransactionNotFound トランザクションが見つからないエラー
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInvalidTransaction 無効なトランザクションエラー
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidAmount 金額が無効
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidTransactionID トランザクションIDが無効
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)
