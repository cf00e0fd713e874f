package models

import "time"

type TransactionType string

const (
	TransactionTypeEntryFee TransactionType = "entry_fee"
	TransactionTypePrize    TransactionType = "prize"
	TransactionTypeRefund   TransactionType = "refund"
)

// Transaction records value moving in or out of the prize pool. The balance
// fields refer to the pool, not the player's wallet.
type Transaction struct {
	ID            string          `json:"id" redis:"id"`
	Account       string          `json:"account" redis:"account"`
	Type          TransactionType `json:"type" redis:"type"`
	Amount        int64           `json:"amount" redis:"amount"`
	BalanceBefore int64           `json:"balance_before" redis:"balance_before"`
	BalanceAfter  int64           `json:"balance_after" redis:"balance_after"`
	Description   string          `json:"description" redis:"description"`
	CreatedAt     time.Time       `json:"created_at" redis:"created_at"`
}
