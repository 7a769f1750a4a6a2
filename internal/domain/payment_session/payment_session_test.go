package payment_session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentSession(t *testing.T) {
	signer, err := NewSigner("dev-secret")
	require.NoError(t, err)
	now := time.UnixMilli(1714557600123)

	ps := NewPaymentSession(signer, "bkash", decimal.NewFromInt(1000), now)

	assert.Equal(t, "sess_1714557600123", ps.SessionID())
	assert.Equal(t, "TXN_1714557600123", ps.TransactionID())
	assert.Equal(t, "bkash", ps.Provider())
	assert.True(t, ps.Amount().Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, now, ps.IssuedAt())
	assert.Equal(t, "sess_1714557600123|TXN_1714557600123|bkash|1000", ps.Payload().String())
	assert.Equal(t, referenceHMAC("dev-secret", "sess_1714557600123|TXN_1714557600123|bkash|1000"), ps.Signature())
	assert.True(t, signer.Verify(ps.Payload(), ps.Signature()))
}

func TestNewPaymentSession_AmountText(t *testing.T) {
	signer, err := NewSigner("dev-secret")
	require.NoError(t, err)

	tests := []struct {
		amount string
		want   string
	}{
		{amount: "0", want: "0"},
		{amount: "10.50", want: "10.5"},
		{amount: "-5", want: "-5"},
		{amount: "1e3", want: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			ps := NewPaymentSession(signer, "bkash", decimal.RequireFromString(tt.amount), time.Now())
			assert.Equal(t, tt.want, ps.Payload().Amount)
		})
	}
}
