package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts are held in gwei.
const GweiPerETH = 1_000_000_000

func GenerateEventID() string {
	return uuid.NewString()
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// ParseAmount converts an ETH string such as "0.001" into gwei.
func ParseAmount(eth string) (int64, error) {
	d, err := decimal.NewFromString(eth)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", eth, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative: %s", eth)
	}

	gwei := d.Shift(9)
	if !gwei.IsInteger() {
		return 0, fmt.Errorf("amount %s is finer than 1 gwei", eth)
	}
	if gwei.GreaterThan(decimal.NewFromInt(1 << 62)) {
		return 0, fmt.Errorf("amount %s is too large", eth)
	}
	return gwei.IntPart(), nil
}

// FormatAmount renders gwei as an ETH string.
func FormatAmount(gwei int64) string {
	return decimal.New(gwei, -9).String()
}

func NewWallet(account string, balance int64) *Wallet {
	return &Wallet{
		Account:   account,
		Balance:   balance,
		UpdatedAt: time.Now(),
	}
}
