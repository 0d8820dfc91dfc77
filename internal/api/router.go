package api

import (
	"github.com/gin-gonic/gin"
)

// Handlers 所有 HTTP 处理器，nil 的处理器对应路由不注册
type Handlers struct {
	Odds   *OddsHandler
	Raffle *RaffleHandler
	Mint   *MintHandler
	Admin  *AdminHandler
}

// RegisterRoutes 注册 /api 路由
func RegisterRoutes(r gin.IRouter, h Handlers) {
	apiGroup := r.Group("/api")
	if h.Odds != nil {
		apiGroup.GET("/odds", h.Odds.GetOdds)
		apiGroup.GET("/odds/rounds", h.Odds.GetRounds)
	}
	if h.Raffle != nil {
		apiGroup.GET("/raffle/status", h.Raffle.GetStatus)
		apiGroup.GET("/raffle/price", h.Raffle.GetPrice)
	}
	if h.Mint != nil {
		apiGroup.POST("/mint", h.Mint.Mint)
		apiGroup.POST("/mint/stream", h.Mint.MintStream)
		apiGroup.GET("/wallets/:wallet/tickets", h.Mint.ListWalletTickets)
		apiGroup.GET("/wallets/:wallet/batches", h.Mint.ListWalletBatches)
		apiGroup.GET("/nfts/:backend/:id", h.Mint.GetNFTStatus)
	}
	if h.Admin != nil {
		admin := apiGroup.Group("/admin")
		admin.POST("/initialize", h.Admin.Initialize)
		admin.POST("/dev-mint", h.Admin.DevMint)
	}
}
