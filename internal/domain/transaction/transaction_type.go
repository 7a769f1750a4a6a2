package transaction

import (
	"fmt"
)

// TransactionType トランザクションタイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit" // 入金
	TransactionTypeDebit  TransactionType = "debit"  // 出金
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "credit", "debit":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効なトランザクションタイプかどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeCredit, TransactionTypeDebit:
		return true
	default:
		return false
	}
}

// IsCredit 入金かどうかを返す
func (tt TransactionType) IsCredit() bool {
	return tt == TransactionTypeCredit
}
