package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/oracle"
)

type OracleHandler struct {
	consumer oracle.Consumer
}

func NewOracleHandler(consumer oracle.Consumer) *OracleHandler {
	return &OracleHandler{consumer: consumer}
}

// Fulfill delivers random words from an external oracle. The token's account
// is the delivering source.
func (h *OracleHandler) Fulfill(c *gin.Context) {
	var req models.FulfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	source := c.GetString("account")
	err := h.consumer.OnRandomDelivered(c.Request.Context(), source, oracle.RequestID(req.RequestID), req.Values)
	if err != nil {
		respondError(c, "Failed to deliver randomness", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"request_id": req.RequestID,
	})
}
