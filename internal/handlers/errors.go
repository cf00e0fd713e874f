package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/services"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNotParticipating, http.StatusConflict},
	{services.ErrAlreadyParticipating, http.StatusConflict},
	{services.ErrMoveAlreadyPending, http.StatusConflict},
	{services.ErrNoPendingMove, http.StatusConflict},
	{services.ErrInsufficientFee, http.StatusBadRequest},
	{services.ErrInvalidDirection, http.StatusBadRequest},
	{services.ErrEmptyRandomness, http.StatusBadRequest},
	{services.ErrEmptyPrizePool, http.StatusBadRequest},
	{services.ErrInsufficientBalance, http.StatusPaymentRequired},
	{services.ErrUnknownRequest, http.StatusNotFound},
	{services.ErrNotAuthorized, http.StatusForbidden},
	{services.ErrUnauthorizedSource, http.StatusForbidden},
	{services.ErrTransferFailed, http.StatusBadGateway},
	{services.ErrOracleUnavailable, http.StatusServiceUnavailable},
}

func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logError(message, err)
	}

	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}

func logError(message string, err error) {
	log.Printf("%s: %v", message, err)
}

func actorFrom(c *gin.Context) models.Actor {
	return models.Actor{
		Account: c.GetString("account"),
		Role:    models.Role(c.GetString("role")),
	}
}
