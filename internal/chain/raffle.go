package chain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/model"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"
)

// solanaRPC RaffleClient 用到的 RPC 子集，*client.Client 直接满足
type solanaRPC interface {
	GetLatestBlockhash(ctx context.Context) (rpc.GetLatestBlockhashValue, error)
	SendTransaction(ctx context.Context, tx types.Transaction) (string, error)
	GetAccountInfo(ctx context.Context, base58Addr string) (client.AccountInfo, error)
	GetSignatureStatus(ctx context.Context, signature string) (*rpc.SignatureStatus, error)
}

// RaffleClient Anchor 抽奖程序客户端，实现 interfaces.RaffleProgram / RaffleReader / RaffleAdmin
type RaffleClient struct {
	rpc             solanaRPC
	accounts        ProgramAccounts
	devWallet       string
	confirmAttempts int
	confirmInterval time.Duration
	logger          *logrus.Logger
}

// NewRaffleClient 创建链上客户端
func NewRaffleClient(cfg *config.ChainConfig, logger *logrus.Logger) *RaffleClient {
	return newRaffleClient(cfg, client.NewClient(cfg.RPCURL), logger)
}

func newRaffleClient(cfg *config.ChainConfig, c solanaRPC, logger *logrus.Logger) *RaffleClient {
	attempts := cfg.ConfirmAttempts
	if attempts <= 0 {
		attempts = 30
	}
	interval := cfg.ConfirmInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &RaffleClient{
		rpc: c,
		accounts: ProgramAccounts{
			ProgramID:     common.PublicKeyFromString(cfg.ProgramID),
			RafflePDA:     common.PublicKeyFromString(cfg.RafflePDA),
			ProjectWallet: common.PublicKeyFromString(cfg.ProjectWallet),
		},
		devWallet:       cfg.DevWallet,
		confirmAttempts: attempts,
		confirmInterval: interval,
		logger:          logger,
	}
}

// RecordPurchase 发送 mint_ticket_v2 并等待确认。确认超时时返回已发送的签名和错误，交易可能已上链
func (r *RaffleClient) RecordPurchase(ctx context.Context, wallet interfaces.Wallet, quantity int) (string, error) {
	const op = "mint_ticket_v2"
	if quantity <= 0 {
		return "", interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("quantity 必须大于 0"))
	}
	signer, err := signerOf(wallet, op)
	if err != nil {
		return "", err
	}
	acc := signer.Account()
	ix, err := mintTicketV2Instruction(r.accounts, acc.PublicKey, uint64(quantity))
	if err != nil {
		return "", interfaces.NewCallError(interfaces.KindValidation, op, err)
	}
	return r.sendAndConfirm(ctx, op, acc, ix)
}

// ReadRunningTotal 读取 total_minted
func (r *RaffleClient) ReadRunningTotal(ctx context.Context) (uint64, error) {
	state, err := r.ReadRaffleState(ctx)
	if err != nil {
		return 0, err
	}
	return state.TotalMinted, nil
}

// ReadRaffleState 读取并解码 Raffle 账户
func (r *RaffleClient) ReadRaffleState(ctx context.Context) (*model.RaffleState, error) {
	const op = "get_raffle_account"
	info, err := r.rpc.GetAccountInfo(ctx, r.accounts.RafflePDA.ToBase58())
	if err != nil {
		return nil, classifyRPCError(op, err)
	}
	if len(info.Data) == 0 {
		// 刚初始化时节点可能尚未同步，按 rpc 处理允许重试
		return nil, interfaces.NewCallError(interfaces.KindRPC, op, fmt.Errorf("raffle 账户不存在: %s", r.accounts.RafflePDA.ToBase58()))
	}
	state, err := decodeRaffleAccount(info.Data)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindService, op, err)
	}
	return state, nil
}

// InitializeRaffle initialize_raffle，仅开发者钱包
func (r *RaffleClient) InitializeRaffle(ctx context.Context, authority interfaces.Wallet) (string, error) {
	const op = "initialize_raffle"
	if err := r.requireDevWallet(op, authority); err != nil {
		return "", err
	}
	signer, err := signerOf(authority, op)
	if err != nil {
		return "", err
	}
	acc := signer.Account()
	ix, err := initializeRaffleInstruction(r.accounts, acc.PublicKey)
	if err != nil {
		return "", interfaces.NewCallError(interfaces.KindValidation, op, err)
	}
	return r.sendAndConfirm(ctx, op, acc, ix)
}

// DevMint 预留票铸造，仅开发者钱包
func (r *RaffleClient) DevMint(ctx context.Context, dev interfaces.Wallet, amount uint64) (string, error) {
	const op = "dev_mint"
	if err := r.requireDevWallet(op, dev); err != nil {
		return "", err
	}
	signer, err := signerOf(dev, op)
	if err != nil {
		return "", err
	}
	if amount == 0 {
		amount = DevMintAmount
	}
	acc := signer.Account()
	ix, err := devMintInstruction(r.accounts, acc.PublicKey, amount)
	if err != nil {
		return "", interfaces.NewCallError(interfaces.KindValidation, op, err)
	}
	return r.sendAndConfirm(ctx, op, acc, ix)
}

func (r *RaffleClient) requireDevWallet(op string, w interfaces.Wallet) error {
	if w == nil || r.devWallet == "" || w.PublicKey() != r.devWallet {
		return interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("dev wallet must be %s", r.devWallet))
	}
	return nil
}

func signerOf(w interfaces.Wallet, op string) (Signer, error) {
	if w == nil || !w.Connected() {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("wallet not connected"))
	}
	s, ok := w.(Signer)
	if !ok {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("wallet %s does not support signing", w.PublicKey()))
	}
	return s, nil
}

// sendAndConfirm 构建、签名、发送交易，然后轮询签名状态直到 confirmed/finalized
func (r *RaffleClient) sendAndConfirm(ctx context.Context, op string, payer types.Account, ix types.Instruction) (string, error) {
	// 1. 最新 blockhash
	recent, err := r.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", classifyRPCError(op, fmt.Errorf("GetLatestBlockhash: %w", err))
	}

	// 2. 组装并签名
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{payer},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    []types.Instruction{ix},
		}),
	})
	if err != nil {
		return "", interfaces.NewCallError(interfaces.KindValidation, op, fmt.Errorf("NewTransaction: %w", err))
	}

	// 3. 发送（预检失败也走这里）
	sig, err := r.rpc.SendTransaction(ctx, tx)
	if err != nil {
		return "", classifyRPCError(op, fmt.Errorf("SendTransaction: %w", err))
	}
	logger := r.logger.WithFields(logrus.Fields{"op": op, "signature": sig})
	logger.Info("交易已发送，等待确认")

	// 4. 等待确认，避免链上失败但后端仍视为成功
	for i := 0; i < r.confirmAttempts; i++ {
		status, err := r.rpc.GetSignatureStatus(ctx, sig)
		if err == nil && status != nil {
			if status.Err != nil {
				logger.WithField("tx_err", status.Err).Warn("交易已上链但执行失败")
				return sig, interfaces.NewCallError(interfaces.KindProgramRejected, op, fmt.Errorf("transaction %s failed: %v", sig, status.Err))
			}
			if status.ConfirmationStatus != nil &&
				(*status.ConfirmationStatus == rpc.CommitmentConfirmed || *status.ConfirmationStatus == rpc.CommitmentFinalized) {
				logger.Info("交易已确认")
				return sig, nil
			}
		}
		if i == r.confirmAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return sig, interfaces.NewCallError(interfaces.KindNetwork, op, fmt.Errorf("等待交易确认: %w", ctx.Err()))
		case <-time.After(r.confirmInterval):
		}
	}
	return sig, interfaces.NewCallError(interfaces.KindRPC, op, fmt.Errorf("等待交易确认超时，请在区块浏览器查看 tx: %s", sig))
}

// classifyRPCError 在调用边界给错误打标
func classifyRPCError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return interfaces.NewCallError(interfaces.KindNetwork, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return interfaces.NewCallError(interfaces.KindNetwork, op, err)
	}
	return interfaces.NewCallError(interfaces.KindRPC, op, err)
}
