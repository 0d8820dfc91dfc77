package service

import (
	"context"

	"ChopRaffle/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// AdminService 抽奖账户初始化与开发者预留铸造
type AdminService struct {
	admin   interfaces.RaffleAdmin
	wallets interfaces.WalletProvider
	status  *RaffleStatusService
	logger  *logrus.Logger
}

// NewAdminService 创建管理服务。status 可为 nil，非空时操作成功后刷新状态缓存
func NewAdminService(admin interfaces.RaffleAdmin, wallets interfaces.WalletProvider, status *RaffleStatusService, logger *logrus.Logger) *AdminService {
	return &AdminService{admin: admin, wallets: wallets, status: status, logger: logger}
}

// InitializeRaffle 初始化 Raffle 账户
func (s *AdminService) InitializeRaffle(ctx context.Context, wallet string) (string, error) {
	w, err := s.connected(wallet)
	if err != nil {
		return "", err
	}
	txID, err := s.admin.InitializeRaffle(ctx, w)
	if err != nil {
		s.logger.WithError(err).WithField("wallet", wallet).Error("初始化 Raffle 失败")
		return txID, err
	}
	s.logger.WithFields(logrus.Fields{"wallet": wallet, "tx_id": txID}).Info("Raffle 初始化成功")
	s.refresh(ctx)
	return txID, nil
}

// DevMint 铸造开发者预留票，amount 为 0 时使用默认预留数量
func (s *AdminService) DevMint(ctx context.Context, wallet string, amount uint64) (string, error) {
	w, err := s.connected(wallet)
	if err != nil {
		return "", err
	}
	txID, err := s.admin.DevMint(ctx, w, amount)
	if err != nil {
		s.logger.WithError(err).WithField("wallet", wallet).Error("开发者预留铸造失败")
		return txID, err
	}
	s.logger.WithFields(logrus.Fields{"wallet": wallet, "tx_id": txID, "amount": amount}).Info("开发者预留铸造成功")
	s.refresh(ctx)
	return txID, nil
}

func (s *AdminService) connected(wallet string) (interfaces.Wallet, error) {
	w, err := s.wallets.Resolve(wallet)
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, "resolve wallet", err)
	}
	if !w.Connected() {
		return nil, interfaces.NewCallError(interfaces.KindValidation, "resolve wallet", errWalletNotConnected(wallet))
	}
	return w, nil
}

func (s *AdminService) refresh(ctx context.Context) {
	if s.status == nil {
		return
	}
	if _, err := s.status.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("管理操作后刷新状态失败")
	}
}
