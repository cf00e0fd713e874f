package models

import (
	"time"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/oracle"
)

type Player struct {
	Account       string        `json:"account" redis:"account"`
	Participating bool          `json:"participating" redis:"participating"`
	Position      grid.Position `json:"position" redis:"position"`
	FeePaid       int64         `json:"fee_paid" redis:"fee_paid"`
	Moves         int64         `json:"moves" redis:"moves"`
	JoinedAt      time.Time     `json:"joined_at" redis:"joined_at"`
}

type MoveKind string

const (
	MoveKindAdjacent MoveKind = "adjacent"
	MoveKindRandom   MoveKind = "random"
)

// PendingMove is the treasure move waiting on a randomness delivery.
type PendingMove struct {
	RequestID   oracle.RequestID `json:"request_id"`
	Kind        MoveKind         `json:"kind"`
	RequestedAt time.Time        `json:"requested_at"`
}

// GameSnapshot is the full authoritative state, as persisted between restarts.
type GameSnapshot struct {
	Treasure grid.Position `json:"treasure"`
	Pending  *PendingMove  `json:"pending,omitempty"`
	Balance  int64         `json:"balance"`
	Players  []Player      `json:"players"`

	// LastRequestID is the highest randomness request id ever issued.
	LastRequestID oracle.RequestID `json:"last_request_id"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type MoveResult struct {
	Account   string         `json:"account"`
	From      grid.Position  `json:"from"`
	To        grid.Position  `json:"to"`
	Direction grid.Direction `json:"direction"`
	Won       bool           `json:"won"`
	Prize     *Transaction   `json:"prize,omitempty"`
}

type GameState struct {
	Treasure        grid.Position `json:"treasure"`
	TreasureOnPrime bool          `json:"treasure_on_prime"`
	Balance         int64         `json:"balance"`
	BalanceETH      string        `json:"balance_eth"`
	EntryFee        int64         `json:"entry_fee"`
	EntryFeeETH     string        `json:"entry_fee_eth"`
	Participants    int           `json:"participants"`
	Pending         *PendingMove  `json:"pending,omitempty"`
}
