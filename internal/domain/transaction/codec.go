package transaction

import (
	"encoding/json"
	"fmt"

	"probaho-server/internal/domain/schema"
)

type record struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId"`
	Type         string      `json:"type"`
	Amount       json.Number `json:"amount"`
	Currency     string      `json:"currency"`
	Status       string      `json:"status"`
	Description  string      `json:"description"`
	MFSProvider  *string     `json:"mfsProvider,omitempty"`
	RecipientMFS *string     `json:"recipientMfs,omitempty"`
	Account      *string     `json:"account,omitempty"`
	Note         *string     `json:"note,omitempty"`
	CreatedAt    string      `json:"createdAt"`
	UpdatedAt    string      `json:"updatedAt"`
}

func toRecord(t *Transaction) record {
	return record{
		ID:           t.id,
		UserID:       t.userID,
		Type:         t.txType.String(),
		Amount:       schema.NumberOf(t.amount),
		Currency:     t.currency,
		Status:       t.status.String(),
		Description:  t.description,
		MFSProvider:  t.mfsProvider,
		RecipientMFS: t.recipientMfs,
		Account:      t.account,
		Note:         t.note,
		CreatedAt:    schema.FormatTime(t.createdAt),
		UpdatedAt:    schema.FormatTime(t.updatedAt),
	}
}

// MarshalJSON 保存形式のJSONに変換
func (t *Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(toRecord(t))
}

// EncodeList トランザクション一覧を保存形式に変換
func EncodeList(txs []*Transaction) ([]byte, error) {
	records := make([]record, 0, len(txs))
	for _, t := range txs {
		records = append(records, toRecord(t))
	}
	return json.Marshal(records)
}

// Decode 1件のトランザクションを検証付きで復元
func Decode(data []byte) (*Transaction, error) {
	o, err := schema.ParseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	t, err := decodeObject(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	return t, nil
}

// DecodeList 一覧を復元する。配列でなければエラー、不正な要素は除外して件数を返す
func DecodeList(data []byte) ([]*Transaction, int, error) {
	items, err := schema.ParseArray(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}
	txs := make([]*Transaction, 0, len(items))
	dropped := 0
	for _, item := range items {
		t, err := Decode(item)
		if err != nil {
			dropped++
			continue
		}
		txs = append(txs, t)
	}
	return txs, dropped, nil
}

func decodeObject(o schema.Object) (*Transaction, error) {
	id, err := o.String("id")
	if err != nil {
		return nil, err
	}
	userID, err := o.String("userId")
	if err != nil {
		return nil, err
	}
	typeStr, err := o.String("type")
	if err != nil {
		return nil, err
	}
	txType, err := NewTransactionType(typeStr)
	if err != nil {
		return nil, err
	}
	amount, err := o.Number("amount")
	if err != nil {
		return nil, err
	}
	currency, err := o.String("currency")
	if err != nil {
		return nil, err
	}
	statusStr, err := o.String("status")
	if err != nil {
		return nil, err
	}
	status, err := NewTransactionStatus(statusStr)
	if err != nil {
		return nil, err
	}
	description, err := o.String("description")
	if err != nil {
		return nil, err
	}
	mfsProvider, err := o.OptionalString("mfsProvider")
	if err != nil {
		return nil, err
	}
	recipientMfs, err := o.OptionalString("recipientMfs")
	if err != nil {
		return nil, err
	}
	account, err := o.OptionalString("account")
	if err != nil {
		return nil, err
	}
	note, err := o.OptionalString("note")
	if err != nil {
		return nil, err
	}
	createdAt, err := o.Time("createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, err := o.Time("updatedAt")
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrInvalidTransactionID
	}

	// 保存済みレコードは金額の正負を問わない（追加時のみ検証）
	return &Transaction{
		id:           id,
		userID:       userID,
		txType:       txType,
		amount:       amount,
		currency:     currency,
		status:       status,
		description:  description,
		mfsProvider:  mfsProvider,
		recipientMfs: recipientMfs,
		account:      account,
		note:         note,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}
