package model

import "time"

// RaffleState 链上 Raffle 账户解码结果
type RaffleState struct {
	TotalMinted   uint64 `json:"total_minted"`
	DevMintDone   bool   `json:"dev_mint_done"`
	Authority     string `json:"authority"`
	ProjectWallet string `json:"project_wallet"`
}

const (
	PhaseEarlyBird = "Early Bird"
	PhaseRegular   = "Regular"
)

// RaffleStatus 对外展示的抽奖状态（含阶段与当前票价）
type RaffleStatus struct {
	TotalMinted   uint64    `json:"total_minted"`
	DevMintDone   bool      `json:"dev_mint_done"`
	Remaining     uint64    `json:"remaining"`
	Phase         string    `json:"phase"`
	PriceSOL      float64   `json:"price_sol"`
	PriceLamports uint64    `json:"price_lamports"`
	Stale         bool      `json:"stale"` // true 表示链上读取失败，返回的是缓存或默认值
	UpdatedAt     time.Time `json:"updated_at"`
}

// PriceQuote 购买数量对应的报价
type PriceQuote struct {
	Quantity      int     `json:"quantity"`
	Phase         string  `json:"phase"`
	UnitSOL       string  `json:"unit_sol"`
	TotalSOL      string  `json:"total_sol"`
	TotalLamports uint64  `json:"total_lamports"`
	UnitUSD       float64 `json:"unit_usd"`
	TotalUSD      float64 `json:"total_usd"`
}
