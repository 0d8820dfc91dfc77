package chain

import (
	"crypto/sha256"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

// DevMintAmount 开发者预留票数
const DevMintAmount uint64 = 6250

var (
	mintTicketV2Discriminator     = anchorDiscriminator("global", "mint_ticket_v2")
	initializeRaffleDiscriminator = anchorDiscriminator("global", "initialize_raffle")
	raffleAccountDiscriminator    = anchorDiscriminator("account", "Raffle")
	// dev_mint 使用固定判别码（程序侧手写，不是 sha256 派生）
	devMintDiscriminator = [8]byte{195, 67, 168, 135, 89, 61, 7, 232}
)

// anchorDiscriminator Anchor 约定：sha256("namespace:name") 的前 8 字节
func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

type amountArgs struct {
	Amount uint64
}

// ProgramAccounts 抽奖程序涉及的固定账户
type ProgramAccounts struct {
	ProgramID     common.PublicKey
	RafflePDA     common.PublicKey
	ProjectWallet common.PublicKey
}

func encodeInstructionData(disc [8]byte, args any) ([]byte, error) {
	data := append([]byte{}, disc[:]...)
	if args == nil {
		return data, nil
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		return nil, fmt.Errorf("borsh serialize: %w", err)
	}
	return append(data, b...), nil
}

// mintTicketV2Instruction mint_ticket_v2(amount)：raffle(w), authority(s,w), project_wallet, system_program
func mintTicketV2Instruction(acc ProgramAccounts, authority common.PublicKey, amount uint64) (types.Instruction, error) {
	data, err := encodeInstructionData(mintTicketV2Discriminator, amountArgs{Amount: amount})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: acc.RafflePDA, IsSigner: false, IsWritable: true},
			{PubKey: authority, IsSigner: true, IsWritable: true},
			{PubKey: acc.ProjectWallet, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// initializeRaffleInstruction initialize_raffle()：账户同 mint_ticket_v2，无参数
func initializeRaffleInstruction(acc ProgramAccounts, authority common.PublicKey) (types.Instruction, error) {
	data, err := encodeInstructionData(initializeRaffleDiscriminator, nil)
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: acc.RafflePDA, IsSigner: false, IsWritable: true},
			{PubKey: authority, IsSigner: true, IsWritable: true},
			{PubKey: acc.ProjectWallet, IsSigner: false, IsWritable: false},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}

// devMintInstruction dev_mint(amount)：raffle(w), authority(s,w), system_program
func devMintInstruction(acc ProgramAccounts, authority common.PublicKey, amount uint64) (types.Instruction, error) {
	data, err := encodeInstructionData(devMintDiscriminator, amountArgs{Amount: amount})
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: acc.ProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: acc.RafflePDA, IsSigner: false, IsWritable: true},
			{PubKey: authority, IsSigner: true, IsWritable: true},
			{PubKey: common.SystemProgramID, IsSigner: false, IsWritable: false},
		},
		Data: data,
	}, nil
}
