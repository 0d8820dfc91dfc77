package underdog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ChopRaffle/internal/adapter"
	"ChopRaffle/internal/config"
	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Name 注册表中的后端名称
const Name = "underdog"

func init() {
	adapter.Register(Name, func(cfg *config.MinterConfig, _ *config.ChainConfig, logger *logrus.Logger) (interfaces.ArtifactMinter, error) {
		if cfg.BaseURL == "" || cfg.ProjectID == "" {
			return nil, fmt.Errorf("underdog: base_url 与 project_id 必填")
		}
		if cfg.AuthToken == "" {
			logger.Warn("underdog: auth_token 未配置（UNDERDOG_AUTH_TOKEN），请求将被拒绝")
		}
		return NewUnderdogAdapter(cfg, logger), nil
	})
}

// Adapter Underdog Protocol 托管铸造（服务方支付上链费用）
type Adapter struct {
	cfg        *config.MinterConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewUnderdogAdapter 创建 Underdog 后端
func NewUnderdogAdapter(cfg *config.MinterConfig, logger *logrus.Logger) *Adapter {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(httpclient.Options{Timeout: cfg.Timeout, Proxy: cfg.Proxy}, logger),
		logger:     logger,
	}
}

// GetName ========== 实现ArtifactMinter接口 ==========
func (a *Adapter) GetName() string {
	return Name
}

// EstimatedCost 由 Underdog 代付，不计成本
func (a *Adapter) EstimatedCost() float64 {
	return 0
}

type createNFTRequest struct {
	Name        string                 `json:"name"`
	Symbol      string                 `json:"symbol"`
	Description string                 `json:"description"`
	Image       string                 `json:"image"`
	ExternalURL string                 `json:"externalUrl"`
	Receiver    string                 `json:"receiver"`
	Attributes  []interfaces.Attribute `json:"attributes"`
}

type nftResponse struct {
	TransactionID string          `json:"transactionId"`
	NFTID         json.RawMessage `json:"nftId"`
	ID            json.RawMessage `json:"id"`
	MintAddress   string          `json:"mintAddress"`
	Status        string          `json:"status"`
	OwnerAddress  string          `json:"ownerAddress"`
	Message       string          `json:"message"`
}

// CreateArtifact POST /projects/{project}/nfts
func (a *Adapter) CreateArtifact(ctx context.Context, wallet string, ticketNumber uint64, meta interfaces.ArtifactMetadata) (*interfaces.ArtifactReceipt, error) {
	const op = "underdog.create_nft"
	body, err := json.Marshal(createNFTRequest{
		Name:        meta.Name,
		Symbol:      meta.Symbol,
		Description: meta.Description,
		Image:       meta.Image,
		ExternalURL: meta.ExternalURL,
		Receiver:    wallet,
		Attributes:  meta.Attributes,
	})
	if err != nil {
		return nil, interfaces.NewCallError(interfaces.KindValidation, op, err)
	}

	url := fmt.Sprintf("%s/projects/%s/nfts", strings.TrimSuffix(a.cfg.BaseURL, "/"), a.cfg.ProjectID)
	var out nftResponse
	if err := a.do(ctx, op, http.MethodPost, url, body, &out); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{"wallet": wallet, "ticket": ticketNumber}).Warn("Underdog 铸造失败")
		return nil, err
	}
	return &interfaces.ArtifactReceipt{
		ExternalID:  rawID(out.NFTID, out.ID),
		MintAddress: out.MintAddress,
		TxID:        out.TransactionID,
	}, nil
}

// Status GET /projects/{project}/nfts/{id}
func (a *Adapter) Status(ctx context.Context, externalID string) (*interfaces.ArtifactStatus, error) {
	const op = "underdog.get_nft"
	url := fmt.Sprintf("%s/projects/%s/nfts/%s", strings.TrimSuffix(a.cfg.BaseURL, "/"), a.cfg.ProjectID, externalID)
	var out nftResponse
	if err := a.do(ctx, op, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	id := rawID(out.NFTID, out.ID)
	if id == "" {
		id = externalID
	}
	return &interfaces.ArtifactStatus{
		ExternalID:  id,
		MintAddress: out.MintAddress,
		Status:      out.Status,
		Owner:       out.OwnerAddress,
	}, nil
}

// do 发送请求并在边界处给错误分类
func (a *Adapter) do(ctx context.Context, op, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return interfaces.NewCallError(interfaces.KindValidation, op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.AuthToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return interfaces.NewCallError(interfaces.KindCanceled, op, err)
		}
		// 超时、连接失败等传输层错误一律视为 network
		return interfaces.NewCallError(interfaces.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var parsed nftResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Message != "" {
			msg = parsed.Message
		}
		apiErr := fmt.Errorf("Underdog API error: %d %s", resp.StatusCode, msg)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return interfaces.NewCallError(interfaces.KindRateLimited, op, apiErr)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return interfaces.NewCallError(interfaces.KindValidation, op, apiErr)
		default:
			return interfaces.NewCallError(interfaces.KindService, op, apiErr)
		}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return interfaces.NewCallError(interfaces.KindService, op, fmt.Errorf("Underdog 响应解析失败: %w", err))
	}
	return nil
}

// rawID nftId 可能是数字也可能是字符串
func rawID(candidates ...json.RawMessage) string {
	for _, c := range candidates {
		s := strings.Trim(strings.TrimSpace(string(c)), `"`)
		if s != "" && s != "null" {
			return s
		}
	}
	return ""
}
