package interfaces

import (
	"context"
	"fmt"
)

// Attribute NFT 属性
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     any    `json:"value"`
}

// ArtifactMetadata 单张票 NFT 的元数据
type ArtifactMetadata struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
}

// ArtifactReceipt 铸造成功的回执
type ArtifactReceipt struct {
	ExternalID  string `json:"external_id"`
	MintAddress string `json:"mint_address"`
	TxID        string `json:"tx_id"`
}

// ArtifactStatus 后端查询到的 NFT 状态
type ArtifactStatus struct {
	ExternalID  string `json:"external_id"`
	MintAddress string `json:"mint_address"`
	Status      string `json:"status"`
	Owner       string `json:"owner,omitempty"`
}

// ArtifactMinter 所有 NFT 铸造后端必须实现的核心接口。每次调用相互独立，失败返回 *CallError
type ArtifactMinter interface {
	GetName() string
	CreateArtifact(ctx context.Context, wallet string, ticketNumber uint64, meta ArtifactMetadata) (*ArtifactReceipt, error)
	// EstimatedCost 单个 NFT 预估成本（SOL）
	EstimatedCost() float64
}

// ArtifactStatusChecker 可选：按外部 ID 查询铸造状态
type ArtifactStatusChecker interface {
	Status(ctx context.Context, externalID string) (*ArtifactStatus, error)
}

// MetadataTemplate 按票号生成 NFT 元数据
type MetadataTemplate struct {
	NamePrefix  string
	Symbol      string
	Description string
	ImageBase   string // 票号以 ?id= 拼接
	ExternalURL string
}

// For 票号 n 的元数据：名称 "CHOP #n"，属性 Number / Edition
func (t MetadataTemplate) For(ticketNumber uint64) ArtifactMetadata {
	prefix := t.NamePrefix
	if prefix == "" {
		prefix = t.Symbol
	}
	image := ""
	if t.ImageBase != "" {
		image = fmt.Sprintf("%s?id=%d", t.ImageBase, ticketNumber)
	}
	return ArtifactMetadata{
		Name:        fmt.Sprintf("%s #%d", prefix, ticketNumber),
		Symbol:      t.Symbol,
		Description: t.Description,
		Image:       image,
		ExternalURL: t.ExternalURL,
		Attributes: []Attribute{
			{TraitType: "Number", Value: ticketNumber},
			{TraitType: "Edition", Value: "Standard"},
		},
	}
}
