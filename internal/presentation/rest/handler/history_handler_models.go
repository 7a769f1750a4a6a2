package handler

import "probaho-server/internal/domain/transaction"

// TransactionHistoryResponse トランザクション履歴レスポンス
// @Description トランザクション履歴レスポンス（新しい順）
type TransactionHistoryResponse struct {
	Transactions []*transaction.Transaction `json:"transactions" swaggertype:"array,object"`
	Total        int                        `json:"total" example:"120"`
	Limit        int                        `json:"limit" example:"50"`
	Offset       int                        `json:"offset" example:"0"`
}
