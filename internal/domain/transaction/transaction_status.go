package transaction

import (
	"fmt"
)

// TransactionStatus トランザクションステータスを表す値オブジェクト
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending" // 処理中
	TransactionStatusSuccess TransactionStatus = "success" // 成功
	TransactionStatusFailed  TransactionStatus = "failed"  // 失敗
)

// NewTransactionStatus 新しいTransactionStatusを作成
func NewTransactionStatus(s string) (TransactionStatus, error) {
	switch s {
	case "pending", "success", "failed":
		return TransactionStatus(s), nil
	default:
		return "", fmt.Errorf("invalid transaction status: %s", s)
	}
}

// String 文字列表現を返す
func (ts TransactionStatus) String() string {
	return string(ts)
}

// Valid 有効なトランザクションステータスかどうかを返す
func (ts TransactionStatus) Valid() bool {
	switch ts {
	case TransactionStatusPending, TransactionStatusSuccess, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// IsSuccess 成功状態かどうかを返す
func (ts TransactionStatus) IsSuccess() bool {
	return ts == TransactionStatusSuccess
}

// IsTerminal 終端状態かどうかを返す
func (ts TransactionStatus) IsTerminal() bool {
	return ts == TransactionStatusSuccess || ts == TransactionStatusFailed
}
