package model

import "time"

// MintRequest 一次购票+铸造请求，任何副作用发生前先校验
type MintRequest struct {
	Wallet   string `json:"wallet" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Backend  string `json:"backend"` // 可选，空时使用 mint.default_backend
}

// TicketAssignment 购票后根据链上 total_minted 推导出的连续票号区间 [Start, Start+Quantity-1]
type TicketAssignment struct {
	Start    uint64 `json:"start"`
	Quantity int    `json:"quantity"`
}

// End 区间最后一个票号（含）
func (a TicketAssignment) End() uint64 {
	if a.Quantity <= 0 {
		return a.Start
	}
	return a.Start + uint64(a.Quantity) - 1
}

// Numbers 升序展开票号
func (a TicketAssignment) Numbers() []uint64 {
	nums := make([]uint64, 0, a.Quantity)
	for i := 0; i < a.Quantity; i++ {
		nums = append(nums, a.Start+uint64(i))
	}
	return nums
}

// NftMintOutcome 单张票 NFT 铸造结果。失败的票号仍是有效的抽奖票
type NftMintOutcome struct {
	TicketNumber uint64 `json:"ticket_number"`
	Success      bool   `json:"success"`
	ExternalID   string `json:"external_id,omitempty"`
	MintAddress  string `json:"mint_address,omitempty"`
	TxID         string `json:"tx_id,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}

// MintBatchResult 一次批量铸造的汇总。Successes + Failures == 请求数量
type MintBatchResult struct {
	BatchUUID     string           `json:"batch_uuid"`
	Wallet        string           `json:"wallet"`
	Backend       string           `json:"backend"`
	TxID          string           `json:"tx_id"`
	Assignment    TicketAssignment `json:"assignment"`
	Outcomes      []NftMintOutcome `json:"outcomes"`
	Successes     int              `json:"successes"`
	Failures      int              `json:"failures"`
	EstimatedCost float64          `json:"estimated_cost"` // SOL
	Canceled      bool             `json:"canceled"`
	Note          string           `json:"note,omitempty"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
}

// Progress 进度通知（仅供展示，不影响结果）
type Progress struct {
	Label   string `json:"label"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}
