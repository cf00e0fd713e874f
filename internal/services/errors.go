package services

import "errors"

var (
	ErrNotParticipating     = errors.New("player has not entered the game")
	ErrAlreadyParticipating = errors.New("player has already entered the game")
	ErrInsufficientFee      = errors.New("insufficient entry fee")
	ErrInvalidDirection     = errors.New("invalid move direction")

	ErrUnknownRequest     = errors.New("unknown randomness request")
	ErrMoveAlreadyPending = errors.New("treasure move already pending")
	ErrNoPendingMove      = errors.New("no treasure move pending")
	ErrEmptyRandomness    = errors.New("randomness delivery carried no values")
	ErrUnauthorizedSource = errors.New("randomness delivered by unauthorized source")
	ErrOracleUnavailable  = errors.New("randomness oracle unavailable")

	ErrNotAuthorized  = errors.New("caller is not allowed to perform this operation")
	ErrTransferFailed = errors.New("prize transfer failed")
	ErrEmptyPrizePool = errors.New("prize pool is empty")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidSnapshot     = errors.New("invalid game snapshot")
)
