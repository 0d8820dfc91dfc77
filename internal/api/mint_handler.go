package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/model"
	"ChopRaffle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type mintRunner interface {
	MintBatch(ctx context.Context, req model.MintRequest, onProgress service.ProgressFunc) (*model.MintBatchResult, error)
}

// MintHistory 铸造历史查询
type MintHistory interface {
	ListTicketsByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.TicketNFT, int64, error)
	ListBatchesByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.MintBatch, int64, error)
}

type statusCheckers interface {
	StatusChecker(name string) (interfaces.ArtifactStatusChecker, error)
}

// MintHandler 购票铸造、历史查询与 NFT 状态
type MintHandler struct {
	orchestrator mintRunner
	history      MintHistory
	checkers     statusCheckers
	logger       *logrus.Logger
}

// NewMintHandler 创建 MintHandler。history 为 nil 时历史接口返回 503
func NewMintHandler(orchestrator mintRunner, history MintHistory, checkers statusCheckers, logger *logrus.Logger) *MintHandler {
	return &MintHandler{orchestrator: orchestrator, history: history, checkers: checkers, logger: logger}
}

// Mint 购票并逐张铸造 POST /api/mint {wallet, quantity, backend}
func (h *MintHandler) Mint(c *gin.Context) {
	var req model.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.orchestrator.MintBatch(c.Request.Context(), req, nil)
	if err != nil {
		status, body := mintErrorResponse(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MintStream 同 Mint，进度以 SSE progress 事件推送，最后推送 result 或 error
// 客户端断开后剩余票号不再铸造（已购票仍有效）
func (h *MintHandler) MintStream(c *gin.Context) {
	var req model.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	result, err := h.orchestrator.MintBatch(c.Request.Context(), req, func(p model.Progress) {
		c.SSEvent("progress", p)
		c.Writer.Flush()
	})
	if err != nil {
		_, body := mintErrorResponse(err)
		c.SSEvent("error", body)
	} else {
		c.SSEvent("result", result)
	}
	c.Writer.Flush()
}

// mintErrorResponse 校验 → 400，购票失败 → 502，区间解析失败 → 409（已扣款，附 tx_id）
func mintErrorResponse(err error) (int, gin.H) {
	var oe *service.OrchestrationError
	if !errors.As(err, &oe) {
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
	body := gin.H{
		"error":     err.Error(),
		"stage":     oe.Stage,
		"committed": oe.Committed,
	}
	if oe.TxID != "" {
		body["tx_id"] = oe.TxID
	}
	if kind := interfaces.KindOf(oe.Err); kind != "" {
		body["kind"] = kind
	}
	switch oe.Stage {
	case service.StageValidation:
		return http.StatusBadRequest, body
	case service.StagePurchaseRecording:
		return http.StatusBadGateway, body
	default:
		return http.StatusConflict, body
	}
}

// ListWalletTickets GET /api/wallets/:wallet/tickets?page=1&page_size=20
func (h *MintHandler) ListWalletTickets(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mint history is not configured"})
		return
	}
	wallet := c.Param("wallet")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, total, err := h.history.ListTicketsByWallet(c.Request.Context(), wallet, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListWalletTickets failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "total": total, "page": page, "page_size": pageSize})
}

// ListWalletBatches GET /api/wallets/:wallet/batches?page=1&page_size=20
func (h *MintHandler) ListWalletBatches(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mint history is not configured"})
		return
	}
	wallet := c.Param("wallet")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	list, total, err := h.history.ListBatchesByWallet(c.Request.Context(), wallet, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListWalletBatches failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "total": total, "page": page, "page_size": pageSize})
}

// GetNFTStatus GET /api/nfts/:backend/:id
func (h *MintHandler) GetNFTStatus(c *gin.Context) {
	checker, err := h.checkers.StatusChecker(c.Param("backend"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	status, err := checker.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := http.StatusBadGateway
		if interfaces.KindOf(err) == interfaces.KindValidation {
			code = http.StatusNotFound
		}
		c.JSON(code, gin.H{"error": err.Error(), "kind": interfaces.KindOf(err)})
		return
	}
	c.JSON(http.StatusOK, status)
}
