package topup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/schema"
)

// StatusSuccess 確定済みの入金ステータス
const StatusSuccess = "success"

var (
	// ErrInvalidTopUp 無効な入金記録エラー
	ErrInvalidTopUp = errors.New("invalid top-up record")
	// ErrDuplicateTopUp 同じIDの入金記録が既にある
	ErrDuplicateTopUp = errors.New("top-up already recorded")
)

// TopUp ゲートウェイ経由の入金記録
type TopUp struct {
	ID        string
	SessionID string
	Provider  string
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}

type record struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Provider  string      `json:"provider"`
	Amount    json.Number `json:"amount"`
	Status    string      `json:"status"`
	CreatedAt string      `json:"createdAt"`
}

// EncodeList 入金記録一覧を保存形式に変換
func EncodeList(items []TopUp) ([]byte, error) {
	records := make([]record, 0, len(items))
	for _, t := range items {
		records = append(records, record{
			ID:        t.ID,
			SessionID: t.SessionID,
			Provider:  t.Provider,
			Amount:    schema.NumberOf(t.Amount),
			Status:    t.Status,
			CreatedAt: schema.FormatTime(t.CreatedAt),
		})
	}
	return json.Marshal(records)
}

// DecodeList 一覧を復元する。不正な要素は除外して件数を返す
func DecodeList(data []byte) ([]TopUp, int, error) {
	items, err := schema.ParseArray(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidTopUp, err)
	}
	out := make([]TopUp, 0, len(items))
	dropped := 0
	for _, item := range items {
		t, err := decode(item)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped, nil
}

func decode(data []byte) (TopUp, error) {
	o, err := schema.ParseObject(data)
	if err != nil {
		return TopUp{}, err
	}
	var t TopUp
	if t.ID, err = o.String("id"); err != nil {
		return TopUp{}, err
	}
	if t.SessionID, err = o.String("sessionId"); err != nil {
		return TopUp{}, err
	}
	if t.Provider, err = o.String("provider"); err != nil {
		return TopUp{}, err
	}
	if t.Amount, err = o.Number("amount"); err != nil {
		return TopUp{}, err
	}
	if t.Status, err = o.String("status"); err != nil {
		return TopUp{}, err
	}
	if t.CreatedAt, err = o.Time("createdAt"); err != nil {
		return TopUp{}, err
	}
	return t, nil
}

// Contains 指定IDの記録があるかどうかを返す
func Contains(items []TopUp, id string) bool {
	for _, t := range items {
		if t.ID == id {
			return true
		}
	}
	return false
}
