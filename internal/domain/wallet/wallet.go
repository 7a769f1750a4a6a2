package wallet

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/schema"
)

// DefaultCurrency 既定の通貨
const DefaultCurrency = "BDT"

// Wallet ウォレットエンティティ（ユーザーごとに1つ）
type Wallet struct {
	id        string
	userID    string
	balance   decimal.Decimal
	currency  string
	isActive  bool
	createdAt time.Time
	updatedAt time.Time
}

// NewWallet 新しいWalletエンティティを作成
func NewWallet(id, userID string, balance decimal.Decimal, currency string, isActive bool, createdAt, updatedAt time.Time) (*Wallet, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidWallet)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidWallet)
	}
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidWallet)
	}
	return &Wallet{
		id:        id,
		userID:    userID,
		balance:   balance,
		currency:  currency,
		isActive:  isActive,
		createdAt: schema.Normalize(createdAt),
		updatedAt: schema.Normalize(updatedAt),
	}, nil
}

// NewDefaultWallet 残高0の初期ウォレットを作成
func NewDefaultWallet(userID string, now time.Time) *Wallet {
	return &Wallet{
		id:        userID,
		userID:    userID,
		balance:   decimal.Zero,
		currency:  DefaultCurrency,
		isActive:  true,
		createdAt: schema.Normalize(now),
		updatedAt: schema.Normalize(now),
	}
}

// ID ウォレットIDを返す
func (w *Wallet) ID() string {
	return w.id
}

// UserID ユーザーIDを返す
func (w *Wallet) UserID() string {
	return w.userID
}

// Balance 残高を返す
func (w *Wallet) Balance() decimal.Decimal {
	return w.balance
}

// Currency 通貨を返す
func (w *Wallet) Currency() string {
	return w.currency
}

// IsActive 有効かどうかを返す
func (w *Wallet) IsActive() bool {
	return w.isActive
}

// CreatedAt 作成日時を返す
func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

// UpdatedAt 更新日時を返す
func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Credit 残高に加算した新しいWalletを返す
func (w *Wallet) Credit(amount decimal.Decimal, now time.Time) *Wallet {
	next := *w
	next.balance = w.balance.Add(amount)
	next.updatedAt = schema.Normalize(now)
	return &next
}

// Debit 残高から減算した新しいWalletを返す（マイナス残高も許容）
func (w *Wallet) Debit(amount decimal.Decimal, now time.Time) *Wallet {
	next := *w
	next.balance = w.balance.Sub(amount)
	next.updatedAt = schema.Normalize(now)
	return &next
}

// CanDebit 残高が金額以上あるかどうかを返す
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.balance.GreaterThanOrEqual(amount)
}

// MustNewWallet テスト用ヘルパー: NewWalletを呼び出し、エラーが発生した場合はpanicする
func MustNewWallet(id, userID string, balance decimal.Decimal, currency string, isActive bool, createdAt, updatedAt time.Time) *Wallet {
	w, err := NewWallet(id, userID, balance, currency, isActive, createdAt, updatedAt)
	if err != nil {
		panic(err)
	}
	return w
}
