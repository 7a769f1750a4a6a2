package payment_session

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"probaho-server/internal/domain/transaction"
)

// SessionIDPrefix セッションIDの接頭辞
const SessionIDPrefix = "sess_"

// PaymentSession 署名済みの決済セッション（保存しない）
type PaymentSession struct {
	sessionID     string
	transactionID string
	provider      string
	amount        decimal.Decimal
	signature     string
	issuedAt      time.Time
}

// NewPaymentSession 時刻からIDを採番して署名済みセッションを作成
func NewPaymentSession(signer *Signer, provider string, amount decimal.Decimal, now time.Time) *PaymentSession {
	ps := &PaymentSession{
		sessionID:     SessionIDPrefix + strconv.FormatInt(now.UnixMilli(), 10),
		transactionID: transaction.NewID(now),
		provider:      provider,
		amount:        amount,
		issuedAt:      now,
	}
	ps.signature = signer.Sign(ps.Payload())
	return ps
}

// SessionID セッションIDを返す
func (ps *PaymentSession) SessionID() string {
	return ps.sessionID
}

// TransactionID トランザクションIDを返す
func (ps *PaymentSession) TransactionID() string {
	return ps.transactionID
}

// Provider プロバイダーを返す
func (ps *PaymentSession) Provider() string {
	return ps.provider
}

// Amount 金額を返す
func (ps *PaymentSession) Amount() decimal.Decimal {
	return ps.amount
}

// Signature 署名を返す
func (ps *PaymentSession) Signature() string {
	return ps.signature
}

// IssuedAt 発行日時を返す
func (ps *PaymentSession) IssuedAt() time.Time {
	return ps.issuedAt
}

// Payload 署名対象を返す
func (ps *PaymentSession) Payload() Payload {
	return Payload{
		SessionID:     ps.sessionID,
		TransactionID: ps.transactionID,
		Provider:      ps.provider,
		Amount:        ps.amount.String(),
	}
}
