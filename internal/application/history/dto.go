package history

import (
	"probaho-server/internal/domain/topup"
	"probaho-server/internal/domain/transaction"
)

// GetTransactionHistoryRequest トランザクション履歴取得リクエスト
type GetTransactionHistoryRequest struct {
	UserID string
	Limit  int
	Offset int
	Type   string // optional: "credit" or "debit"
	Status string // optional: "pending", "success", "failed"
}

// GetTransactionHistoryResponse トランザクション履歴取得レスポンス
type GetTransactionHistoryResponse struct {
	Transactions []*transaction.Transaction
	Total        int // フィルタ後の件数（ページング前）
	Limit        int
	Offset       int
}

// Overview 履歴画面の内容
type Overview struct {
	TopUps       []topup.TopUp
	Transactions []*transaction.Transaction
}
