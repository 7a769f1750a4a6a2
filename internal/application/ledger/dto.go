package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/storage"
)

// DailyStats 本日分の集計
type DailyStats struct {
	Sent         decimal.Decimal
	Received     decimal.Decimal
	Transactions int
}

// Notification 保存キーの変更通知（Payloadがnilなら削除）
type Notification struct {
	UserID  string
	Key     storage.Key
	Payload json.RawMessage
}

// Listener 変更通知を受け取る関数
type Listener func(n Notification)

// AddMoneyRequest MFSからの入金リクエスト
type AddMoneyRequest struct {
	Provider  string
	Account   string
	Amount    decimal.Decimal
	Reference string
	Note      *string
}

// SendMoneyRequest MFSへの送金リクエスト
type SendMoneyRequest struct {
	RecipientMFS string
	Account      string
	Amount       decimal.Decimal
	Note         *string
}

// SendMoneyResult 送金結果
type SendMoneyResult struct {
	Fee   decimal.Decimal
	Total decimal.Decimal
}
