package models

import "time"

type Wallet struct {
	Account   string    `json:"account" redis:"account"`
	Balance   int64     `json:"balance" redis:"balance"`
	TotalPaid int64     `json:"total_paid" redis:"total_paid"`
	TotalWon  int64     `json:"total_won" redis:"total_won"`
	UpdatedAt time.Time `json:"updated_at" redis:"-"`
}

type BalanceResponse struct {
	Balance    int64  `json:"balance"`
	BalanceETH string `json:"balance_eth"`
	TotalPaid  int64  `json:"total_paid"`
	TotalWon   int64  `json:"total_won"`
}

func (w *Wallet) Response() BalanceResponse {
	return BalanceResponse{
		Balance:    w.Balance,
		BalanceETH: FormatAmount(w.Balance),
		TotalPaid:  w.TotalPaid,
		TotalWon:   w.TotalWon,
	}
}
