package service

import (
	"context"
	"fmt"
	"time"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/metrics"
	"ChopRaffle/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var lamportsPerSOL = decimal.NewFromInt(1_000_000_000)

// StatusCache 最近一次成功状态的缓存（Redis 实现见 internal/cache）
type StatusCache interface {
	Get(ctx context.Context) (*model.RaffleStatus, error)
	Set(ctx context.Context, status *model.RaffleStatus) error
}

// Pricing 票价分档：total_minted 小于阈值时为早鸟价
type Pricing struct {
	EarlyBirdThreshold uint64
	EarlyBirdPrice     decimal.Decimal
	RegularPrice       decimal.Decimal
}

// PricingFromConfig 解析配置中的 SOL 价格字符串
func PricingFromConfig(cfg *config.RaffleConfig) (Pricing, error) {
	early, err := decimal.NewFromString(cfg.EarlyBirdPriceSOL)
	if err != nil {
		return Pricing{}, fmt.Errorf("解析 early_bird_price_sol 失败: %w", err)
	}
	regular, err := decimal.NewFromString(cfg.RegularPriceSOL)
	if err != nil {
		return Pricing{}, fmt.Errorf("解析 regular_price_sol 失败: %w", err)
	}
	return Pricing{EarlyBirdThreshold: cfg.EarlyBirdThreshold, EarlyBirdPrice: early, RegularPrice: regular}, nil
}

// PhaseFor 当前阶段与单价
func (p Pricing) PhaseFor(totalMinted uint64) (string, decimal.Decimal) {
	if totalMinted < p.EarlyBirdThreshold {
		return model.PhaseEarlyBird, p.EarlyBirdPrice
	}
	return model.PhaseRegular, p.RegularPrice
}

// RaffleStatusService 抽奖状态与报价
type RaffleStatusService struct {
	reader    interfaces.RaffleReader
	cache     StatusCache
	converter PriceConverter
	constants model.RaffleConstants
	pricing   Pricing
	logger    *logrus.Logger
	now       func() time.Time
}

// NewRaffleStatusService 创建状态服务。cache 可为 nil
func NewRaffleStatusService(reader interfaces.RaffleReader, cache StatusCache, converter PriceConverter, constants model.RaffleConstants, pricing Pricing, logger *logrus.Logger) *RaffleStatusService {
	return &RaffleStatusService{
		reader:    reader,
		cache:     cache,
		converter: converter,
		constants: constants,
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
	}
}

// Refresh 读取链上状态并写入缓存，读取失败时返回错误
func (s *RaffleStatusService) Refresh(ctx context.Context) (*model.RaffleStatus, error) {
	state, err := s.reader.ReadRaffleState(ctx)
	if err != nil {
		return nil, err
	}
	status := s.build(state.TotalMinted, state.DevMintDone)
	metrics.SetTotalMinted(state.TotalMinted)
	if s.cache != nil {
		if err := s.cache.Set(ctx, status); err != nil {
			s.logger.WithError(err).Warn("写入状态缓存失败")
		}
	}
	return status, nil
}

// Status 当前状态。链上读取失败时依次回退到缓存、默认值（total = 开发者预留、dev mint 已完成、早鸟阶段），并标记 stale
func (s *RaffleStatusService) Status(ctx context.Context) *model.RaffleStatus {
	status, err := s.Refresh(ctx)
	if err == nil {
		return status
	}
	s.logger.WithError(err).Warn("读取链上抽奖状态失败，使用回退值")

	if s.cache != nil {
		cached, cerr := s.cache.Get(ctx)
		if cerr != nil {
			s.logger.WithError(cerr).Warn("读取状态缓存失败")
		}
		if cached != nil {
			cached.Stale = true
			return cached
		}
	}

	fallback := s.build(uint64(s.constants.DevReserved), true)
	fallback.Phase = model.PhaseEarlyBird
	fallback.PriceSOL, _ = s.pricing.EarlyBirdPrice.Float64()
	fallback.PriceLamports = uint64(s.pricing.EarlyBirdPrice.Mul(lamportsPerSOL).IntPart())
	fallback.Stale = true
	return fallback
}

func (s *RaffleStatusService) build(totalMinted uint64, devMintDone bool) *model.RaffleStatus {
	phase, unit := s.pricing.PhaseFor(totalMinted)
	supply := uint64(s.constants.TotalSupply)
	var remaining uint64
	if totalMinted < supply {
		remaining = supply - totalMinted
	}
	price, _ := unit.Float64()
	return &model.RaffleStatus{
		TotalMinted:   totalMinted,
		DevMintDone:   devMintDone,
		Remaining:     remaining,
		Phase:         phase,
		PriceSOL:      price,
		PriceLamports: uint64(unit.Mul(lamportsPerSOL).IntPart()),
		UpdatedAt:     s.now(),
	}
}

// PriceFor 购买 quantity 张票的报价（按 totalMinted 所在阶段定价）
func (s *RaffleStatusService) PriceFor(ctx context.Context, quantity int, totalMinted uint64) (*model.PriceQuote, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity 必须大于 0，当前 %d", quantity)
	}
	phase, unit := s.pricing.PhaseFor(totalMinted)
	total := unit.Mul(decimal.NewFromInt(int64(quantity)))
	quote := &model.PriceQuote{
		Quantity:      quantity,
		Phase:         phase,
		UnitSOL:       unit.String(),
		TotalSOL:      total.String(),
		TotalLamports: uint64(total.Mul(lamportsPerSOL).IntPart()),
	}
	unitUSD, err := s.UnitPriceUSD(ctx, totalMinted)
	if err != nil {
		s.logger.WithError(err).Warn("票价换算 USD 失败")
		return quote, nil
	}
	quote.UnitUSD = unitUSD
	quote.TotalUSD, _ = decimal.NewFromFloat(unitUSD).Mul(decimal.NewFromInt(int64(quantity))).Float64()
	return quote, nil
}

// UnitPriceUSD 当前阶段单价的 USD 值（赔率计算使用）
func (s *RaffleStatusService) UnitPriceUSD(ctx context.Context, totalMinted uint64) (float64, error) {
	_, unit := s.pricing.PhaseFor(totalMinted)
	sol, _ := unit.Float64()
	if s.converter == nil {
		return 0, fmt.Errorf("未配置价格换算")
	}
	return s.converter.ConvertToUSD(ctx, sol, "SOL")
}
