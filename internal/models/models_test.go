package models_test

import (
	"testing"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
)

func TestModels(t *testing.T) {
	fee, err := models.ParseAmount("0.001")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if fee != 1_000_000 {
		t.Errorf("Expected 0.001 ETH to be 1000000 gwei, got %d", fee)
	}

	if got := models.FormatAmount(2_700_000); got != "0.0027" {
		t.Errorf("Expected 0.0027, got %s", got)
	}

	for _, bad := range []string{"", "abc", "-1", "0.0000000001"} {
		if _, err := models.ParseAmount(bad); err == nil {
			t.Errorf("ParseAmount(%q) should fail", bad)
		}
	}

	wallet := models.NewWallet("0xabc", 10_000_000)
	if wallet.Response().BalanceETH != "0.01" {
		t.Errorf("Expected balance 0.01 ETH, got %s", wallet.Response().BalanceETH)
	}

	event := models.NewGameEvent(models.EventPlayerMoved).WithMove(0, 99)
	if event.ID == "" {
		t.Error("GameEvent ID should not be empty")
	}
	if *event.From != 0 || *event.To != grid.Position(99) {
		t.Errorf("unexpected move %d -> %d", *event.From, *event.To)
	}

	if models.GenerateTransactionID() == "" {
		t.Error("Transaction ID should not be empty")
	}

	if !models.RoleAdmin.Valid() || models.Role("root").Valid() {
		t.Error("role validation mismatch")
	}
	if !(models.Actor{Account: "house", Role: models.RoleAdmin}).IsAdmin() {
		t.Error("admin actor should be admin")
	}
}
