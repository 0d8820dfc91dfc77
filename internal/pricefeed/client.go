package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"ChopRaffle/internal/config"
	"ChopRaffle/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL CoinGecko 公共接口
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultCoinID SOL 在 CoinGecko 的 ID
	DefaultCoinID = "solana"
)

// Client CoinGecko simple/price 客户端，用于 SOL → USD 报价
type Client struct {
	baseURL    string
	apiKey     string
	coinID     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建报价客户端
func NewClient(cfg *config.PriceFeedConfig, logger *logrus.Logger) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	coinID := cfg.CoinID
	if coinID == "" {
		coinID = DefaultCoinID
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		coinID:     coinID,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{Timeout: cfg.Timeout, Proxy: cfg.Proxy}, logger),
		logger:     logger,
	}
}

// SpotUSD 查询 1 单位币种的 USD 价格。currency 目前只支持 SOL（映射为配置的 coin_id）
func (c *Client) SpotUSD(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(currency)
	if currency == "USD" {
		return 1, nil
	}
	if currency != "SOL" {
		return 0, fmt.Errorf("报价源暂仅支持 SOL，当前币种: %s", currency)
	}

	q := url.Values{}
	q.Set("ids", c.coinID)
	q.Set("vs_currencies", "usd")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Warn("报价源 HTTP 请求失败")
		return 0, fmt.Errorf("报价源请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "body": string(body)}).Warn("报价源返回错误")
		return 0, fmt.Errorf("报价源错误 %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, fmt.Errorf("报价源响应解析失败: %w", err)
	}
	price, ok := result[c.coinID]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("报价源未返回 %s 的 USD 价格", c.coinID)
	}
	c.logger.WithFields(logrus.Fields{"coin": c.coinID, "usd": price}).Debug("获取 SOL 报价成功")
	return price, nil
}
