package api

import (
	"context"
	"net/http"
	"strconv"

	"ChopRaffle/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type raffleStatusService interface {
	Status(ctx context.Context) *model.RaffleStatus
	PriceFor(ctx context.Context, quantity int, totalMinted uint64) (*model.PriceQuote, error)
}

// RaffleHandler 抽奖状态与报价
type RaffleHandler struct {
	status raffleStatusService
	logger *logrus.Logger
}

func NewRaffleHandler(status raffleStatusService, logger *logrus.Logger) *RaffleHandler {
	return &RaffleHandler{status: status, logger: logger}
}

// GetStatus GET /api/raffle/status
func (h *RaffleHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status(c.Request.Context()))
}

// GetPrice GET /api/raffle/price?quantity=10
func (h *RaffleHandler) GetPrice(c *gin.Context) {
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be a positive integer"})
		return
	}
	ctx := c.Request.Context()
	status := h.status.Status(ctx)
	quote, err := h.status.PriceFor(ctx, quantity, status.TotalMinted)
	if err != nil {
		h.logger.WithError(err).Error("GetPrice failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote, "stale": status.Stale})
}
