package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	BatchStatusCompleted       = "completed"
	BatchStatusCanceled        = "canceled"
	BatchStatusRangeUnresolved = "range_unresolved"

	TicketStatusMinted = "minted"
	TicketStatusFailed = "failed"
)

// MintBatch 对应 mint_batches 表，一次 mint_ticket_v2 购票及其后续 NFT 铸造
// range_unresolved 的记录票号为空，需要人工对账（链上已扣款）
type MintBatch struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	BatchUUID     string    `gorm:"column:batch_uuid;type:varchar(64);uniqueIndex;not null"`
	Wallet        string    `gorm:"column:wallet;type:varchar(64);index;not null"`
	Backend       string    `gorm:"column:backend;type:varchar(32);not null"`
	PurchaseTx    string    `gorm:"column:purchase_tx;type:varchar(128);not null"`
	StartNumber   *uint64   `gorm:"column:start_number"`
	Quantity      int       `gorm:"column:quantity;not null"`
	Successes     int       `gorm:"column:successes;default:0"`
	Failures      int       `gorm:"column:failures;default:0"`
	EstimatedCost float64   `gorm:"column:estimated_cost;type:numeric(18,9);default:0"` // SOL
	Status        string    `gorm:"column:status;type:varchar(24);not null"`
	ErrorMessage  *string   `gorm:"column:error_message;type:text"`
	CreatedAt     time.Time `gorm:"column:created_at;type:timestamp;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;type:timestamp;default:now()"`
}

func (MintBatch) TableName() string { return "mint_batches" }

// TicketNFT 对应 ticket_nfts 表，每个票号一条
type TicketNFT struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	BatchUUID    string         `gorm:"column:batch_uuid;type:varchar(64);index;not null"`
	TicketNumber uint64         `gorm:"column:ticket_number;uniqueIndex;not null"`
	Wallet       string         `gorm:"column:wallet;type:varchar(64);index;not null"`
	Status       string         `gorm:"column:status;type:varchar(16);not null"`
	ExternalID   *string        `gorm:"column:external_id;type:varchar(128)"`
	MintAddress  *string        `gorm:"column:mint_address;type:varchar(64)"`
	TxID         *string        `gorm:"column:tx_id;type:varchar(128)"`
	ErrorKind    *string        `gorm:"column:error_kind;type:varchar(32)"`
	ErrorMessage *string        `gorm:"column:error_message;type:text"`
	Attributes   datatypes.JSON `gorm:"column:attributes;type:jsonb"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now()"`
}

func (TicketNFT) TableName() string { return "ticket_nfts" }
