package wallet

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWallet(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		id       string
		userID   string
		currency string
		wantErr  bool
	}{
		{name: "正常系: 有効なウォレット", id: "1", userID: "1", currency: "BDT"},
		{name: "異常系: IDが空", id: "", userID: "1", currency: "BDT", wantErr: true},
		{name: "異常系: ユーザーIDが空", id: "1", userID: "", currency: "BDT", wantErr: true},
		{name: "異常系: 通貨が空", id: "1", userID: "1", currency: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := NewWallet(tt.id, tt.userID, decimal.NewFromInt(500), tt.currency, true, now, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWallet)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, w.ID())
			assert.Equal(t, tt.userID, w.UserID())
			assert.True(t, w.Balance().Equal(decimal.NewFromInt(500)))
			assert.Equal(t, tt.currency, w.Currency())
			assert.True(t, w.IsActive())
			assert.Equal(t, now, w.CreatedAt())
			assert.Equal(t, now, w.UpdatedAt())
		})
	}
}

func TestNewDefaultWallet(t *testing.T) {
	now := time.Now()
	w := NewDefaultWallet("1", now)

	assert.Equal(t, "1", w.ID())
	assert.Equal(t, "1", w.UserID())
	assert.True(t, w.Balance().IsZero())
	assert.Equal(t, DefaultCurrency, w.Currency())
	assert.True(t, w.IsActive())
}

func TestWallet_CreditDebit(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)
	w := MustNewWallet("1", "1", decimal.NewFromInt(100), "BDT", true, created, created)

	credited := w.Credit(decimal.RequireFromString("50.25"), later)
	assert.True(t, credited.Balance().Equal(decimal.RequireFromString("150.25")))
	assert.Equal(t, later, credited.UpdatedAt())
	assert.Equal(t, created, credited.CreatedAt())

	// 元のウォレットは変更されない
	assert.True(t, w.Balance().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, created, w.UpdatedAt())

	debited := w.Debit(decimal.NewFromInt(130), later)
	assert.True(t, debited.Balance().Equal(decimal.NewFromInt(-30)))

	assert.True(t, w.CanDebit(decimal.NewFromInt(100)))
	assert.False(t, w.CanDebit(decimal.RequireFromString("100.01")))
}
