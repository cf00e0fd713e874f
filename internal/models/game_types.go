package models

import "treasure-hunt-backend/internal/grid"

type ParticipateRequest struct {
	// Amount is in ETH, e.g. "0.001".
	Amount string `json:"amount" binding:"required"`
}

type MoveRequest struct {
	Direction grid.Direction `json:"direction" binding:"required"`
}

type PrizeRequest struct {
	Account string `json:"account" binding:"required"`
	// Force pays account even when it is not on the treasure's cell.
	Force bool `json:"force"`
}

type FulfillRequest struct {
	RequestID uint64   `json:"request_id" binding:"required"`
	Values    []uint64 `json:"values"`
}

type PlayerResponse struct {
	Account       string         `json:"account"`
	Participating bool           `json:"participating"`
	Position      *grid.Position `json:"position,omitempty"`
	Winner        bool           `json:"winner"`
	Wallet        *Wallet        `json:"wallet,omitempty"`
}
