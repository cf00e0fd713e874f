package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"treasure-hunt-backend/internal/models"
)

// Payer moves prize value out of the pool to an account.
type Payer interface {
	Transfer(ctx context.Context, account string, amount int64) error
}

// IdempotentPayer credits at most once per transaction id, so a transfer
// whose outcome is unknown can be repeated.
type IdempotentPayer interface {
	Payer
	TransferOnce(ctx context.Context, txID, account string, amount int64) error
}

// Wallets is the player-facing side of payment plumbing.
type Wallets interface {
	Payer
	Charge(ctx context.Context, account string, amount int64) error
	// Refund reverses a Charge that could not be used.
	Refund(ctx context.Context, account string, amount int64) error
	GetWallet(ctx context.Context, account string) (*models.Wallet, error)
}

// TransactionLog keeps recent wallet transactions per account.
type TransactionLog interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransactions(ctx context.Context, account string, limit int64) ([]*models.Transaction, error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, account, action string, limit int, window time.Duration) (bool, error)
}

// MemoryWallets keeps wallets in process. New accounts start with
// startingBalance.
type MemoryWallets struct {
	mu              sync.Mutex
	wallets         map[string]*models.Wallet
	transactions    map[string][]*models.Transaction
	startingBalance int64
}

func NewMemoryWallets(startingBalance int64) *MemoryWallets {
	return &MemoryWallets{
		wallets:         make(map[string]*models.Wallet),
		transactions:    make(map[string][]*models.Transaction),
		startingBalance: startingBalance,
	}
}

func (w *MemoryWallets) wallet(account string) *models.Wallet {
	wallet, ok := w.wallets[account]
	if !ok {
		wallet = models.NewWallet(account, w.startingBalance)
		w.wallets[account] = wallet
	}
	return wallet
}

func (w *MemoryWallets) GetWallet(ctx context.Context, account string) (*models.Wallet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	copied := *w.wallet(account)
	return &copied, nil
}

func (w *MemoryWallets) Charge(ctx context.Context, account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative charge: %d", amount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wallet := w.wallet(account)
	if wallet.Balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, wallet.Balance, amount)
	}
	wallet.Balance -= amount
	wallet.TotalPaid += amount
	wallet.UpdatedAt = time.Now()
	return nil
}

func (w *MemoryWallets) Transfer(ctx context.Context, account string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative transfer: %d", amount)
	}
	if account == "" {
		return fmt.Errorf("transfer to empty account")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wallet := w.wallet(account)
	wallet.Balance += amount
	wallet.TotalWon += amount
	wallet.UpdatedAt = time.Now()
	return nil
}

func (w *MemoryWallets) Refund(ctx context.Context, account string, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	wallet := w.wallet(account)
	wallet.Balance += amount
	wallet.TotalPaid -= amount
	wallet.UpdatedAt = time.Now()
	return nil
}

func (w *MemoryWallets) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	txs := append(w.transactions[tx.Account], tx)
	if len(txs) > MaxTransactionsPerAccount {
		txs = txs[len(txs)-MaxTransactionsPerAccount:]
	}
	w.transactions[tx.Account] = txs
	return nil
}

func (w *MemoryWallets) GetTransactions(ctx context.Context, account string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > MaxTransactionsPerAccount {
		limit = 50
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	txs := w.transactions[account]
	out := make([]*models.Transaction, 0, limit)
	for i := len(txs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, txs[i])
	}
	return out, nil
}
