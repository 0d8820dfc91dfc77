package interfaces

import (
	"context"

	"ChopRaffle/internal/model"
)

// RaffleProgram 链上抽奖程序的调用约定
type RaffleProgram interface {
	// RecordPurchase 记录购票（唯一的权威副作用），返回交易签名。调用方不得自动重试
	RecordPurchase(ctx context.Context, wallet Wallet, quantity int) (txID string, err error)
	// ReadRunningTotal 读取 total_minted，幂等、最终一致
	ReadRunningTotal(ctx context.Context) (uint64, error)
}

// RaffleReader 读取完整 Raffle 账户
type RaffleReader interface {
	ReadRaffleState(ctx context.Context) (*model.RaffleState, error)
}

// RaffleAdmin 管理操作（初始化、开发者预留铸造）
type RaffleAdmin interface {
	InitializeRaffle(ctx context.Context, authority Wallet) (txID string, err error)
	DevMint(ctx context.Context, dev Wallet, amount uint64) (txID string, err error)
}
