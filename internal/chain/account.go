package chain

import (
	"bytes"
	"fmt"

	"ChopRaffle/internal/model"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// raffleAccountSize 判别码 + total_minted(u64) + dev_mint_done(bool) + authority + project_wallet
const raffleAccountSize = 8 + 8 + 1 + 32 + 32

// raffleAccount 链上 Raffle 账户布局（borsh）
type raffleAccount struct {
	TotalMinted   uint64
	DevMintDone   bool
	Authority     [32]byte
	ProjectWallet [32]byte
}

// decodeRaffleAccount 校验账户判别码并解码，账户尾部的预留空间忽略
func decodeRaffleAccount(data []byte) (*model.RaffleState, error) {
	if len(data) < raffleAccountSize {
		return nil, fmt.Errorf("raffle 账户数据长度不足: %d < %d", len(data), raffleAccountSize)
	}
	if !bytes.Equal(data[:8], raffleAccountDiscriminator[:]) {
		return nil, fmt.Errorf("raffle 账户判别码不匹配")
	}
	var acc raffleAccount
	if err := borsh.Deserialize(&acc, data[8:raffleAccountSize]); err != nil {
		return nil, fmt.Errorf("borsh deserialize raffle: %w", err)
	}
	return &model.RaffleState{
		TotalMinted:   acc.TotalMinted,
		DevMintDone:   acc.DevMintDone,
		Authority:     common.PublicKey(acc.Authority).ToBase58(),
		ProjectWallet: common.PublicKey(acc.ProjectWallet).ToBase58(),
	}, nil
}
