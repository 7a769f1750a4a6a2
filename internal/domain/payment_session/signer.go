package payment_session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Payload 署名対象のフィールド（値はそのまま連結する）
type Payload struct {
	SessionID     string
	TransactionID string
	Provider      string
	Amount        string
}

// String "sessionId|tx|provider|amount"形式の署名対象文字列を返す
func (p Payload) String() string {
	return strings.Join([]string{p.SessionID, p.TransactionID, p.Provider, p.Amount}, "|")
}

// Signer HMAC-SHA256による署名と検証
type Signer struct {
	secret       []byte
	constantTime bool
}

// SignerOption Signerのオプション
type SignerOption func(*Signer)

// WithConstantTimeCompare 検証時に定数時間比較を使う
func WithConstantTimeCompare(enabled bool) SignerOption {
	return func(s *Signer) {
		s.constantTime = enabled
	}
}

// NewSigner 新しいSignerを作成
func NewSigner(secret string, opts ...SignerOption) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &Signer{secret: []byte(secret)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign 16進数の署名を返す
func (s *Signer) Sign(p Payload) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(p.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify 署名が一致するかどうかを返す
func (s *Signer) Verify(p Payload, sig string) bool {
	expected := s.Sign(p)
	if s.constantTime {
		return hmac.Equal([]byte(sig), []byte(expected))
	}
	return sig == expected
}

// ConstantTime 定数時間比較が有効かどうかを返す
func (s *Signer) ConstantTime() bool {
	return s.constantTime
}
