package services

import "time"

const (
	KeyWallet              = "wallet:%s"
	KeyGameState           = "game:state"
	KeyTransaction         = "transaction:%s"
	KeyAccountTransactions = "account:%s:transactions"
	KeyRateLimit           = "ratelimit:%s:%s"
	KeyCredit              = "credit:%s"

	TTLTransaction = 30 * 24 * time.Hour // 30 days

	MaxTransactionsPerAccount = 100

	DefaultRateLimitMoves = 60 // Max 60 moves per minute
	DefaultRateLimitEntry = 5
)
