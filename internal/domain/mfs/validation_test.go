package mfs

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "正常系: 最小", amount: "0.01"},
		{name: "正常系: 上限ちょうど", amount: "100000"},
		{name: "異常系: ゼロ", amount: "0", wantErr: true},
		{name: "異常系: 負数", amount: "-1", wantErr: true},
		{name: "異常系: 上限超過", amount: "100000.01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{name: "正常系: 01始まり", phone: "01712345678"},
		{name: "正常系: 国番号付き", phone: "+880 1712-345678"},
		{name: "正常系: 先頭0なし", phone: "1912345678"},
		{name: "異常系: 2桁目が範囲外", phone: "01212345678", wantErr: true},
		{name: "異常系: 桁数不足", phone: "0171234567", wantErr: true},
		{name: "異常系: 空文字", phone: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhoneNumber(tt.phone)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPhoneNumber)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCalculateTransferFee(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "100", want: "5"},
		{amount: "333.33", want: "5"},
		{amount: "1000", want: "15"},
		{amount: "10000", want: "150"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := CalculateTransferFee(decimal.RequireFromString(tt.amount))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "*******5678", MaskAccount("01712345678"))
	assert.Equal(t, "123", MaskAccount("123"))
}
