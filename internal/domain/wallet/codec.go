package wallet

import (
	"encoding/json"
	"fmt"

	"probaho-server/internal/domain/schema"
)

type record struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Balance   json.Number `json:"balance"`
	Currency  string      `json:"currency"`
	IsActive  bool        `json:"isActive"`
	CreatedAt string      `json:"createdAt"`
	UpdatedAt string      `json:"updatedAt"`
}

// MarshalJSON 保存形式のJSONに変換
func (w *Wallet) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		ID:        w.id,
		UserID:    w.userID,
		Balance:   schema.NumberOf(w.balance),
		Currency:  w.currency,
		IsActive:  w.isActive,
		CreatedAt: schema.FormatTime(w.createdAt),
		UpdatedAt: schema.FormatTime(w.updatedAt),
	})
}

// Encode 保存形式に変換
func Encode(w *Wallet) ([]byte, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: nil wallet", ErrInvalidWallet)
	}
	return w.MarshalJSON()
}

// Decode 保存形式から検証付きで復元
func Decode(data []byte) (*Wallet, error) {
	o, err := schema.ParseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWallet, err)
	}
	w, err := decodeObject(o)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWallet, err)
	}
	return w, nil
}

func decodeObject(o schema.Object) (*Wallet, error) {
	id, err := o.String("id")
	if err != nil {
		return nil, err
	}
	userID, err := o.String("userId")
	if err != nil {
		return nil, err
	}
	balance, err := o.Number("balance")
	if err != nil {
		return nil, err
	}
	currency, err := o.String("currency")
	if err != nil {
		return nil, err
	}
	isActive, err := o.Bool("isActive")
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
	return NewWallet(id, userID, balance, currency, isActive, createdAt, updatedAt)
}
