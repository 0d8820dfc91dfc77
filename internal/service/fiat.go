package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// PriceConverter 将链上资产金额换算为 USD（仅用于展示与赔率计算的单价）
type PriceConverter interface {
	// ConvertToUSD 将指定币种金额转为 USD
	ConvertToUSD(ctx context.Context, amount float64, currency string) (usdAmount float64, err error)
}

// SpotSource 单位币种的 USD 现价
type SpotSource interface {
	SpotUSD(ctx context.Context, currency string) (float64, error)
}

// FixedRateConverter 固定汇率（raffle.usd_per_sol，未接入报价源时使用）
type FixedRateConverter struct {
	usdPerSOL float64
}

func NewFixedRateConverter(usdPerSOL float64) *FixedRateConverter {
	return &FixedRateConverter{usdPerSOL: usdPerSOL}
}

func (f *FixedRateConverter) ConvertToUSD(ctx context.Context, amount float64, currency string) (float64, error) {
	_ = ctx
	switch strings.ToUpper(currency) {
	case "USD", "USDC", "USDT":
		return amount, nil
	case "SOL":
		return amount * f.usdPerSOL, nil
	default:
		return 0, fmt.Errorf("不支持的币种: %s", currency)
	}
}

// FeedConverter 优先使用报价源，失败时回落到固定汇率
type FeedConverter struct {
	feed     SpotSource
	fallback *FixedRateConverter
	logger   *logrus.Logger
}

// NewFeedConverter 创建报价源兑换服务
func NewFeedConverter(feed SpotSource, fallback *FixedRateConverter, logger *logrus.Logger) *FeedConverter {
	return &FeedConverter{feed: feed, fallback: fallback, logger: logger}
}

func (c *FeedConverter) ConvertToUSD(ctx context.Context, amount float64, currency string) (float64, error) {
	price, err := c.feed.SpotUSD(ctx, currency)
	if err != nil {
		c.logger.WithError(err).WithField("currency", currency).Warn("报价源不可用，使用固定汇率")
		return c.fallback.ConvertToUSD(ctx, amount, currency)
	}
	return amount * price, nil
}
