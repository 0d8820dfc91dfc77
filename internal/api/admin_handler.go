package api

import (
	"context"
	"net/http"

	"ChopRaffle/internal/interfaces"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type adminService interface {
	InitializeRaffle(ctx context.Context, wallet string) (string, error)
	DevMint(ctx context.Context, wallet string, amount uint64) (string, error)
}

// AdminHandler 开发者钱包的管理操作
type AdminHandler struct {
	admin  adminService
	logger *logrus.Logger
}

func NewAdminHandler(admin adminService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

type adminRequest struct {
	Wallet string `json:"wallet" binding:"required"`
	Amount uint64 `json:"amount"`
}

// Initialize POST /api/admin/initialize {wallet}
func (h *AdminHandler) Initialize(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txID, err := h.admin.InitializeRaffle(c.Request.Context(), req.Wallet)
	h.respond(c, txID, err)
}

// DevMint POST /api/admin/dev-mint {wallet, amount}，amount 为空时铸造默认预留数量
func (h *AdminHandler) DevMint(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txID, err := h.admin.DevMint(c.Request.Context(), req.Wallet, req.Amount)
	h.respond(c, txID, err)
}

func (h *AdminHandler) respond(c *gin.Context, txID string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"tx_id": txID})
		return
	}
	kind := interfaces.KindOf(err)
	code := http.StatusBadGateway
	switch kind {
	case interfaces.KindValidation:
		code = http.StatusBadRequest
	case interfaces.KindProgramRejected:
		code = http.StatusConflict
	}
	body := gin.H{"error": err.Error(), "kind": kind}
	if txID != "" {
		body["tx_id"] = txID
	}
	c.JSON(code, body)
}
