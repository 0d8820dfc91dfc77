package api

import (
	"context"
	"net/http"
	"strconv"

	"ChopRaffle/internal/model"
	"ChopRaffle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// unitPricer 当前阶段的 USD 单价
type unitPricer interface {
	Status(ctx context.Context) *model.RaffleStatus
	UnitPriceUSD(ctx context.Context, totalMinted uint64) (float64, error)
}

// OddsHandler 赔率计算接口（纯计算，不访问数据库）
type OddsHandler struct {
	engine         *service.OddsEngine
	pricer         unitPricer
	defaultUnitUSD float64
	logger         *logrus.Logger
}

// NewOddsHandler 创建 OddsHandler。pricer 为 nil 或换算失败时使用 defaultUnitUSD
func NewOddsHandler(engine *service.OddsEngine, pricer unitPricer, defaultUnitUSD float64, logger *logrus.Logger) *OddsHandler {
	return &OddsHandler{engine: engine, pricer: pricer, defaultUnitUSD: defaultUnitUSD, logger: logger}
}

// GetOdds 赔率 GET /api/odds?tickets=1000&price=0.5
// price 为空时按当前阶段票价换算 USD
func (h *OddsHandler) GetOdds(c *gin.Context) {
	tickets := h.ticketsParam(c)
	price, err := h.unitPrice(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a number"})
		return
	}
	c.JSON(http.StatusOK, h.engine.Calculate(tickets, price))
}

// GetRounds 每轮存活情况 GET /api/odds/rounds?tickets=1000
func (h *OddsHandler) GetRounds(c *gin.Context) {
	tickets := h.ticketsParam(c)
	c.JSON(http.StatusOK, gin.H{
		"tickets":            tickets,
		"survival_rate":      h.engine.SurvivalRate(),
		"makes_final_round":  h.engine.CombinedSurvival(tickets),
		"expected_survivors": h.engine.ExpectedSurvivors(),
		"rounds":             h.engine.RoundBreakdown(tickets),
	})
}

func (h *OddsHandler) ticketsParam(c *gin.Context) int {
	raw, err := strconv.ParseFloat(c.DefaultQuery("tickets", "1"), 64)
	if err != nil {
		return 1
	}
	return h.engine.NormalizeTickets(raw)
}

func (h *OddsHandler) unitPrice(c *gin.Context) (float64, error) {
	if p := c.Query("price"); p != "" {
		return strconv.ParseFloat(p, 64)
	}
	if h.pricer == nil {
		return h.defaultUnitUSD, nil
	}
	ctx := c.Request.Context()
	status := h.pricer.Status(ctx)
	usd, err := h.pricer.UnitPriceUSD(ctx, status.TotalMinted)
	if err != nil {
		h.logger.WithError(err).Warn("单价换算失败，使用默认单价")
		return h.defaultUnitUSD, nil
	}
	return usd, nil
}
