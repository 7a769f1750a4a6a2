package mfs

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Limits プロバイダーごとの入金上限
type Limits struct {
	Min           decimal.Decimal
	Max           decimal.Decimal
	Daily         decimal.Decimal
	Prefix        string
	AccountLength int
}

var topUpLimits = map[Provider]Limits{
	ProviderBkash: {
		Min:           decimal.NewFromInt(10),
		Max:           decimal.NewFromInt(50000),
		Daily:         decimal.NewFromInt(100000),
		Prefix:        "01",
		AccountLength: 11,
	},
	ProviderNagad: {
		Min:           decimal.NewFromInt(10),
		Max:           decimal.NewFromInt(40000),
		Daily:         decimal.NewFromInt(80000),
		Prefix:        "01",
		AccountLength: 11,
	},
	ProviderRocket: {
		Min:           decimal.NewFromInt(10),
		Max:           decimal.NewFromInt(30000),
		Daily:         decimal.NewFromInt(60000),
		Prefix:        "018",
		AccountLength: 11,
	},
	ProviderUpay: {
		Min:           decimal.NewFromInt(10),
		Max:           decimal.NewFromInt(25000),
		Daily:         decimal.NewFromInt(50000),
		Prefix:        "01",
		AccountLength: 11,
	},
}

// TopUpLimits 入金上限を返す
func (p Provider) TopUpLimits() (Limits, error) {
	if !p.Valid() {
		return Limits{}, fmt.Errorf("%w: %s", ErrInvalidProvider, p)
	}
	l, ok := topUpLimits[p]
	if !ok {
		return Limits{}, fmt.Errorf("%w: %s", ErrProviderNotSupported, p)
	}
	return l, nil
}

// ValidateAccount 口座番号を検証
func (l Limits) ValidateAccount(account string) error {
	if len(account) != l.AccountLength || !isDigits(account) {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidAccount, l.AccountLength)
	}
	if !strings.HasPrefix(account, l.Prefix) {
		return fmt.Errorf("%w: must start with %s", ErrInvalidAccount, l.Prefix)
	}
	return nil
}

// ValidateAmount 1回あたりの金額を検証
func (l Limits) ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(l.Min) {
		return fmt.Errorf("%w: minimum is %s", ErrAmountBelowMinimum, l.Min)
	}
	if amount.GreaterThan(l.Max) {
		return fmt.Errorf("%w: maximum is %s", ErrAmountAboveMaximum, l.Max)
	}
	return nil
}

// CheckDaily 本日の受取額に加算しても日次上限以内か検証
func (l Limits) CheckDaily(receivedToday, amount decimal.Decimal) error {
	if receivedToday.Add(amount).GreaterThan(l.Daily) {
		remaining := l.Daily.Sub(receivedToday)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return fmt.Errorf("%w: remaining %s", ErrDailyLimitExceeded, remaining)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
