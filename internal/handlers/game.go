package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

// EventLister reads back journaled events.
type EventLister interface {
	ListEvents(ctx context.Context, account string, limit int) ([]*models.GameEvent, error)
}

type GameHandler struct {
	gameEngine   *services.GameEngine
	wallets      services.Wallets
	transactions services.TransactionLog
	journal      EventLister
}

func NewGameHandler(gameEngine *services.GameEngine, wallets services.Wallets, transactions services.TransactionLog, journal EventLister) *GameHandler {
	return &GameHandler{
		gameEngine:   gameEngine,
		wallets:      wallets,
		transactions: transactions,
		journal:      journal,
	}
}

func (h *GameHandler) Participate(c *gin.Context) {
	account := c.GetString("account")
	ctx := c.Request.Context()

	var req models.ParticipateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	amount, err := models.ParseAmount(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid amount",
			"details": err.Error(),
		})
		return
	}

	if amount < h.gameEngine.EntryFee() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to participate",
			"details": services.ErrInsufficientFee.Error(),
			"fee":     models.FormatAmount(h.gameEngine.EntryFee()),
		})
		return
	}
	if h.gameEngine.IsParticipant(account) {
		respondError(c, "Failed to participate", services.ErrAlreadyParticipating)
		return
	}

	if err := h.wallets.Charge(ctx, account, amount); err != nil {
		respondError(c, "Failed to charge wallet", err)
		return
	}

	player, err := h.gameEngine.Participate(ctx, account, amount)
	if err != nil {
		if refundErr := h.wallets.Refund(ctx, account, amount); refundErr != nil {
			logError("Failed to refund entry fee", refundErr)
		}
		respondError(c, "Failed to participate", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"player":  player,
	})
}

func (h *GameHandler) MakeMove(c *gin.Context) {
	account := c.GetString("account")

	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.gameEngine.MakeMove(c.Request.Context(), account, req.Direction)
	if err != nil {
		respondError(c, "Failed to move", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}

func (h *GameHandler) GetMe(c *gin.Context) {
	account := c.GetString("account")
	ctx := c.Request.Context()

	response := models.PlayerResponse{Account: account}

	if player, err := h.gameEngine.Player(account); err == nil {
		response.Participating = true
		response.Position = &player.Position
		response.Winner = h.gameEngine.IsWinner(account)
	}

	wallet, err := h.wallets.GetWallet(ctx, account)
	if err != nil {
		respondError(c, "Failed to get wallet", err)
		return
	}
	response.Wallet = wallet

	var transactions []*models.Transaction
	if h.transactions != nil {
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
		if err != nil {
			limit = 20
		}
		transactions, err = h.transactions.GetTransactions(ctx, account, limit)
		if err != nil {
			respondError(c, "Failed to get transactions", err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"player":       response,
		"balance":      wallet.Response(),
		"transactions": transactions,
	})
}

func (h *GameHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   h.gameEngine.State(),
		"oracle":  h.gameEngine.OracleID(),
	})
}

func (h *GameHandler) CheckPrime(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("position"))
	if err != nil || !grid.Valid(grid.Position(pos)) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Position must be an integer between 0 and 99",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"position": pos,
		"prime":    h.gameEngine.IsPrime(grid.Position(pos)),
	})
}

func (h *GameHandler) GetEvents(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Event journal is not configured"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	events, err := h.journal.ListEvents(c.Request.Context(), c.Query("account"), limit)
	if err != nil {
		respondError(c, "Failed to fetch events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
		"count":   len(events),
	})
}

// GetVerificationData publishes the seed commitment and the caller's derived
// starting cell so entries can be audited once the seed is revealed.
func (h *GameHandler) GetVerificationData(c *gin.Context) {
	account := c.GetString("account")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"account":        account,
			"seed_hash":      h.gameEngine.SeedHash(),
			"start_position": h.gameEngine.StartPosition(account),
			"oracle":         h.gameEngine.OracleID(),
		},
	})
}
