package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

func TestMemoryWallets(t *testing.T) {
	wallets := services.NewMemoryWallets(2 * entryFee)
	ctx := context.Background()

	wallet, err := wallets.GetWallet(ctx, "user1")
	if err != nil {
		t.Fatalf("Failed to get wallet: %v", err)
	}
	if wallet.Balance != 2*entryFee {
		t.Errorf("Expected starting balance %d, got %d", 2*entryFee, wallet.Balance)
	}

	if err := wallets.Charge(ctx, "user1", entryFee); err != nil {
		t.Fatalf("Failed to charge: %v", err)
	}
	if err := wallets.Charge(ctx, "user1", 2*entryFee); !errors.Is(err, services.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	if err := wallets.Refund(ctx, "user1", entryFee); err != nil {
		t.Fatalf("Failed to refund: %v", err)
	}
	if err := wallets.Transfer(ctx, "user1", 900_000); err != nil {
		t.Fatalf("Failed to transfer: %v", err)
	}
	if err := wallets.Transfer(ctx, "", 1); err == nil {
		t.Error("Expected transfer to empty account to fail")
	}

	wallet, _ = wallets.GetWallet(ctx, "user1")
	if wallet.Balance != 2*entryFee+900_000 || wallet.TotalPaid != 0 || wallet.TotalWon != 900_000 {
		t.Errorf("Unexpected wallet %+v", wallet)
	}
}

func TestMemoryTransactions(t *testing.T) {
	wallets := services.NewMemoryWallets(0)
	ctx := context.Background()

	for i := 0; i < services.MaxTransactionsPerAccount+5; i++ {
		wallets.SaveTransaction(ctx, &models.Transaction{
			ID:        models.GenerateTransactionID(),
			Account:   "user1",
			Type:      models.TransactionTypeEntryFee,
			Amount:    int64(i),
			CreatedAt: time.Now(),
		})
	}

	txs, err := wallets.GetTransactions(ctx, "user1", 3)
	if err != nil {
		t.Fatalf("Failed to get transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(txs))
	}
	if txs[0].Amount != services.MaxTransactionsPerAccount+4 {
		t.Errorf("Expected newest first, got amount %d", txs[0].Amount)
	}

	all, _ := wallets.GetTransactions(ctx, "user1", 1000)
	if len(all) != 50 {
		t.Errorf("Out of range limit should fall back to 50, got %d", len(all))
	}

	none, _ := wallets.GetTransactions(ctx, "user2", 10)
	if len(none) != 0 {
		t.Errorf("Expected no transactions, got %d", len(none))
	}
}
