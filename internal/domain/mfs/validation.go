package mfs

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// MaxTransferAmount 1回あたりの最大金額（10万BDT）
	MaxTransferAmount = decimal.NewFromInt(100000)
	// MinTransferFee 最低送金手数料
	MinTransferFee = decimal.NewFromInt(5)
	// TransferFeeRate 送金手数料率
	TransferFeeRate = decimal.RequireFromString("0.015")

	phoneRegex = regexp.MustCompile(`^(880|0)?1[3-9]\d{8}$`)
)

// ValidateAmount 金額が0より大きく上限以下か検証
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxTransferAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// NormalizePhoneNumber 数字以外を取り除く
func NormalizePhoneNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhoneNumber バングラデシュの携帯番号か検証
func ValidatePhoneNumber(phone string) error {
	if !phoneRegex.MatchString(NormalizePhoneNumber(phone)) {
		return ErrInvalidPhoneNumber
	}
	return nil
}

// CalculateTransferFee 送金手数料を計算（1.5%、最低5BDT）
func CalculateTransferFee(amount decimal.Decimal) decimal.Decimal {
	return decimal.Max(MinTransferFee, amount.Mul(TransferFeeRate))
}

// MaskAccount 末尾4桁以外を伏せる
func MaskAccount(account string) string {
	if len(account) < 4 {
		return account
	}
	return strings.Repeat("*", len(account)-4) + account[len(account)-4:]
}
