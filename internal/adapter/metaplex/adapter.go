package metaplex

import (
	"context"
	"fmt"

	"ChopRaffle/internal/adapter"
	"ChopRaffle/internal/chain"
	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Name 注册表中的后端名称
const Name = "metaplex"

const lamportsPerSOL = 1_000_000_000

func init() {
	adapter.Register(Name, func(cfg *config.MinterConfig, chainCfg *config.ChainConfig, logger *logrus.Logger) (interfaces.ArtifactMinter, error) {
		if cfg.AuthorityKeypair == "" {
			return nil, fmt.Errorf("metaplex: authority_keypair 必填")
		}
		auth, err := chain.LoadKeypairFile(cfg.AuthorityKeypair)
		if err != nil {
			return nil, fmt.Errorf("metaplex: 加载 mint authority 失败: %w", err)
		}
		rpcURL := cfg.RPCURL
		if rpcURL == "" {
			rpcURL = chainCfg.RPCURL
		}
		if rpcURL == "" {
			rpcURL = rpc.DevnetRPCEndpoint
		}
		return NewMetaplexAdapter(cfg, client.NewClient(rpcURL), auth, logger), nil
	})
}

// Adapter 直接上链铸造 Metaplex NFT（mint 账户 + metadata v3 + ATA + master edition），费用由 mint authority 支付
type Adapter struct {
	cfg       *config.MinterConfig
	rpc       *client.Client
	authority types.Account
	logger    *logrus.Logger
}

// NewMetaplexAdapter 创建 Metaplex 后端
func NewMetaplexAdapter(cfg *config.MinterConfig, c *client.Client, authority types.Account, logger *logrus.Logger) *Adapter {
	return &Adapter{cfg: cfg, rpc: c, authority: authority, logger: logger}
}

func (a *Adapter) GetName() string { return Name }

// EstimatedCost 配置的 lamports 折算为 SOL
func (a *Adapter) EstimatedCost() float64 {
	f, _ := decimal.NewFromInt(int64(a.cfg.CostLamports)).Div(decimal.NewFromInt(lamportsPerSOL)).Float64()
	return f
}

// CreateArtifact 单笔交易完成 1 枚 NFT 的创建并发送到 owner 的 ATA
func (a *Adapter) CreateArtifact(ctx context.Context, wallet string, ticketNumber uint64, meta interfaces.ArtifactMetadata) (*interfaces.ArtifactReceipt, error) {
	const op = "metaplex.mint_nft"
	feePayer := a.authority
	owner := common.PublicKeyFromString(wallet)
	mint := types.NewAccount()

	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("FindAssociatedTokenAddress: %w", err))
	}
	metadataPubkey, err := token_metadata.GetTokenMetaPubkey(mint.PublicKey)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("GetTokenMetaPubkey: %w", err))
	}
	masterEditionPubkey, err := token_metadata.GetMasterEdition(mint.PublicKey)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("GetMasterEdition: %w", err))
	}

	mintRent, err := a.rpc.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindRPC, op, fmt.Errorf("GetMinimumBalanceForRentExemption: %w", err))
	}
	recent, err := a.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindRPC, op, fmt.Errorf("GetLatestBlockhash: %w", err))
	}

	// 每张票 1 枚，MaxSupply = 1
	maxSupply := uint64(1)
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{mint, feePayer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions: []types.Instruction{
				// 1) Mint 账户
				system.CreateAccount(system.CreateAccountParam{
					From:     feePayer.PublicKey,
					New:      mint.PublicKey,
					Owner:    common.TokenProgramID,
					Lamports: mintRent,
					Space:    token.MintAccountSize,
				}),
				// 2) 初始化 Mint (decimals = 0)
				token.InitializeMint(token.InitializeMintParam{
					Decimals:   0,
					Mint:       mint.PublicKey,
					MintAuth:   feePayer.PublicKey,
					FreezeAuth: &feePayer.PublicKey,
				}),
				// 3) Metadata
				token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
					Metadata:                metadataPubkey,
					Mint:                    mint.PublicKey,
					MintAuthority:           feePayer.PublicKey,
					UpdateAuthority:         feePayer.PublicKey,
					Payer:                   feePayer.PublicKey,
					UpdateAuthorityIsSigner: true,
					IsMutable:               true,
					Data: token_metadata.DataV2{
						Name:                 meta.Name,
						Symbol:               meta.Symbol,
						Uri:                  meta.Image,
						SellerFeeBasisPoints: a.cfg.SellerFeeBps,
						Creators: &[]token_metadata.Creator{
							{Address: feePayer.PublicKey, Verified: true, Share: 100},
						},
					},
				}),
				// 4) 持有人 ATA
				associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
					Funder:                 feePayer.PublicKey,
					Owner:                  owner,
					Mint:                   mint.PublicKey,
					AssociatedTokenAccount: ata,
				}),
				// 5) 铸造 1 枚
				token.MintTo(token.MintToParam{
					Mint:   mint.PublicKey,
					To:     ata,
					Auth:   feePayer.PublicKey,
					Amount: 1,
				}),
				// 6) MasterEdition v3
				token_metadata.CreateMasterEditionV3(token_metadata.CreateMasterEditionParam{
					Edition:         masterEditionPubkey,
					Mint:            mint.PublicKey,
					UpdateAuthority: feePayer.PublicKey,
					MintAuthority:   feePayer.PublicKey,
					Metadata:        metadataPubkey,
					Payer:           feePayer.PublicKey,
					MaxSupply:       &maxSupply,
				}),
			},
		}),
	})
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("NewTransaction: %w", err))
	}

	sig, err := a.rpc.SendTransaction(ctx, tx)
	if err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{"wallet": wallet, "ticket": ticketNumber}).Warn("Metaplex 铸造交易发送失败")
		return nil, interfaces.NewCallError(interfaces.KindRPC, op, fmt.Errorf("SendTransaction: %w", err))
	}
	return &interfaces.ArtifactReceipt{
		ExternalID:  mint.PublicKey.ToBase58(),
		MintAddress: mint.PublicKey.ToBase58(),
		TxID:        sig,
	}, nil
}
