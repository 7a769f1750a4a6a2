package transaction

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/schema"
)

const (
	// IDPrefix トランザクションIDの接頭辞
	IDPrefix = "TXN_"
	// DefaultCurrency 既定の通貨
	DefaultCurrency = "BDT"
)

// NewID 時刻からトランザクションIDを生成
func NewID(now time.Time) string {
	return IDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewUniqueID 既存のIDと重複しないIDを生成
// 同じミリ秒のIDがあれば1ミリ秒ずつ進める
func NewUniqueID(now time.Time, existing []*Transaction) string {
	taken := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		taken[t.id] = struct{}{}
	}
	id := NewID(now)
	for {
		if _, ok := taken[id]; !ok {
			return id
		}
		now = now.Add(time.Millisecond)
		id = NewID(now)
	}
}

// Draft 追加前のトランザクション（ID・日時は台帳が採番する）
type Draft struct {
	UserID       string
	Type         TransactionType
	Amount       decimal.Decimal
	Currency     string
	Status       TransactionStatus
	Description  string
	MFSProvider  *string
	RecipientMFS *string
	Account      *string
	Note         *string
}

// Validate 追加前の検証（金額・タイプ・ステータス）
func (d Draft) Validate() error {
	if !d.Amount.IsPositive() {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, ErrInvalidAmount)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidTransaction, d.Type)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidTransaction, d.Status)
	}
	return nil
}

// Transaction トランザクションエンティティ
type Transaction struct {
	id           string
	userID       string
	txType       TransactionType
	amount       decimal.Decimal
	currency     string
	status       TransactionStatus
	description  string
	mfsProvider  *string
	recipientMfs *string
	account      *string
	note         *string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewTransaction 下書きから新しいTransactionエンティティを作成
func NewTransaction(id string, d Draft, now time.Time) (*Transaction, error) {
	if id == "" {
		return nil, ErrInvalidTransactionID
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	currency := d.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Transaction{
		id:           id,
		userID:       d.UserID,
		txType:       d.Type,
		amount:       d.Amount,
		currency:     currency,
		status:       d.Status,
		description:  d.Description,
		mfsProvider:  d.MFSProvider,
		recipientMfs: d.RecipientMFS,
		account:      d.Account,
		note:         d.Note,
		createdAt:    schema.Normalize(now),
		updatedAt:    schema.Normalize(now),
	}, nil
}

// ID トランザクションIDを返す
func (t *Transaction) ID() string {
	return t.id
}

// UserID ユーザーIDを返す
func (t *Transaction) UserID() string {
	return t.userID
}

// Type トランザクションタイプを返す
func (t *Transaction) Type() TransactionType {
	return t.txType
}

// Amount 金額を返す
func (t *Transaction) Amount() decimal.Decimal {
	return t.amount
}

// SignedAmount 入金は正、出金は負の金額を返す
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.txType.IsCredit() {
		return t.amount
	}
	return t.amount.Neg()
}

// Currency 通貨を返す
func (t *Transaction) Currency() string {
	return t.currency
}

// Status ステータスを返す
func (t *Transaction) Status() TransactionStatus {
	return t.status
}

// Description 説明を返す
func (t *Transaction) Description() string {
	return t.description
}

// MFSProvider 入金元プロバイダーを返す
func (t *Transaction) MFSProvider() *string {
	return t.mfsProvider
}

// RecipientMFS 送金先プロバイダーを返す
func (t *Transaction) RecipientMFS() *string {
	return t.recipientMfs
}

// Account 口座番号を返す
func (t *Transaction) Account() *string {
	return t.account
}

// Note メモを返す
func (t *Transaction) Note() *string {
	return t.note
}

// CreatedAt 作成日時を返す
func (t *Transaction) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt 更新日時を返す
func (t *Transaction) UpdatedAt() time.Time {
	return t.updatedAt
}

// MustNewTransaction テスト用ヘルパー: NewTransactionを呼び出し、エラーが発生した場合はpanicする
func MustNewTransaction(id string, d Draft, now time.Time) *Transaction {
	tx, err := NewTransaction(id, d, now)
	if err != nil {
		panic(err)
	}
	return tx
}
