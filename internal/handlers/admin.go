package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

type AdminHandler struct {
	gameEngine *services.GameEngine
}

func NewAdminHandler(gameEngine *services.GameEngine) *AdminHandler {
	return &AdminHandler{gameEngine: gameEngine}
}

func (h *AdminHandler) MoveTreasureToAdjacent(c *gin.Context) {
	id, err := h.gameEngine.MoveTreasureToAdjacent(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, "Failed to move treasure", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": id,
		"kind":       models.MoveKindAdjacent,
	})
}

func (h *AdminHandler) MoveTreasureToRandom(c *gin.Context) {
	id, err := h.gameEngine.MoveTreasureToRandom(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, "Failed to move treasure", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": id,
		"kind":       models.MoveKindRandom,
	})
}

func (h *AdminHandler) MoveTreasure(c *gin.Context) {
	id, kind, err := h.gameEngine.MoveTreasure(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, "Failed to move treasure", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":    true,
		"request_id": id,
		"kind":       kind,
	})
}

func (h *AdminHandler) CancelPendingMove(c *gin.Context) {
	pending, err := h.gameEngine.CancelPendingMove(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, "Failed to cancel treasure move", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cancelled": pending,
	})
}

func (h *AdminHandler) SendPrize(c *gin.Context) {
	var req models.PrizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if !req.Force && !h.gameEngine.IsWinner(req.Account) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Account is not on the treasure's cell",
		})
		return
	}

	tx, err := h.gameEngine.SendPrize(c.Request.Context(), actorFrom(c), req.Account)
	if err != nil {
		respondError(c, "Failed to send prize", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"transaction": tx,
	})
}
