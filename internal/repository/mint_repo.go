package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ChopRaffle/internal/interfaces"
	"ChopRaffle/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MintRepository 批量铸造与票号 NFT 的持久化
type MintRepository interface {
	RecordBatch(ctx context.Context, result *model.MintBatchResult) error
	RecordUnresolved(ctx context.Context, batchUUID, wallet, backend, txID string, quantity int, cause error) error
	GetBatchByUUID(ctx context.Context, batchUUID string) (*model.MintBatch, error)
	ListBatchesByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.MintBatch, int64, error)
	ListTicketsByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.TicketNFT, int64, error)
	ListTicketsByBatch(ctx context.Context, batchUUID string) ([]*model.TicketNFT, error)
	ListUnresolved(ctx context.Context) ([]*model.MintBatch, error)
}

type mintRepository struct {
	db *gorm.DB
}

// NewMintRepository 创建铸造仓储
func NewMintRepository(db *gorm.DB) MintRepository {
	return &mintRepository{db: db}
}

// RecordBatch 批次与每个票号在同一事务中写入；同票号重复写入时覆盖 NFT 结果
func (r *mintRepository) RecordBatch(ctx context.Context, result *model.MintBatchResult) error {
	batch := toBatchRow(result)
	tickets, err := toTicketRows(result)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("保存批次失败: %w", err)
		}
		if len(tickets) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticket_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"batch_uuid", "status", "external_id", "mint_address", "tx_id", "error_kind", "error_message"}),
		}).Create(&tickets).Error; err != nil {
			return fmt.Errorf("保存票号失败: %w", err)
		}
		return nil
	})
}

// RecordUnresolved 购票已上链但票号区间未知，留待对账
func (r *mintRepository) RecordUnresolved(ctx context.Context, batchUUID, wallet, backend, txID string, quantity int, cause error) error {
	msg := cause.Error()
	return r.db.WithContext(ctx).Create(&model.MintBatch{
		BatchUUID:    batchUUID,
		Wallet:       wallet,
		Backend:      backend,
		PurchaseTx:   txID,
		Quantity:     quantity,
		Status:       model.BatchStatusRangeUnresolved,
		ErrorMessage: &msg,
	}).Error
}

func (r *mintRepository) GetBatchByUUID(ctx context.Context, batchUUID string) (*model.MintBatch, error) {
	var b model.MintBatch
	if err := r.db.WithContext(ctx).Where("batch_uuid = ?", batchUUID).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *mintRepository) ListBatchesByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.MintBatch, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	db := r.db.WithContext(ctx).Model(&model.MintBatch{}).Where("wallet = ?", wallet)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.MintBatch
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *mintRepository) ListTicketsByWallet(ctx context.Context, wallet string, page, pageSize int) ([]*model.TicketNFT, int64, error) {
	page, pageSize = normalizePage(page, pageSize)
	db := r.db.WithContext(ctx).Model(&model.TicketNFT{}).Where("wallet = ?", wallet)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*model.TicketNFT
	if err := db.Order("ticket_number ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *mintRepository) ListTicketsByBatch(ctx context.Context, batchUUID string) ([]*model.TicketNFT, error) {
	var list []*model.TicketNFT
	if err := r.db.WithContext(ctx).Where("batch_uuid = ?", batchUUID).Order("ticket_number ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *mintRepository) ListUnresolved(ctx context.Context) ([]*model.MintBatch, error) {
	var list []*model.MintBatch
	if err := r.db.WithContext(ctx).Where("status = ?", model.BatchStatusRangeUnresolved).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func toBatchRow(result *model.MintBatchResult) *model.MintBatch {
	start := result.Assignment.Start
	status := model.BatchStatusCompleted
	if result.Canceled {
		status = model.BatchStatusCanceled
	}
	now := time.Now()
	b := &model.MintBatch{
		BatchUUID:     result.BatchUUID,
		Wallet:        result.Wallet,
		Backend:       result.Backend,
		PurchaseTx:    result.TxID,
		StartNumber:   &start,
		Quantity:      result.Assignment.Quantity,
		Successes:     result.Successes,
		Failures:      result.Failures,
		EstimatedCost: result.EstimatedCost,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if result.Note != "" {
		note := result.Note
		b.ErrorMessage = &note
	}
	return b
}

func toTicketRows(result *model.MintBatchResult) ([]model.TicketNFT, error) {
	rows := make([]model.TicketNFT, 0, len(result.Outcomes))
	for _, oc := range result.Outcomes {
		attrs, err := json.Marshal([]interfaces.Attribute{
			{TraitType: "Number", Value: oc.TicketNumber},
			{TraitType: "Edition", Value: "Standard"},
		})
		if err != nil {
			return nil, err
		}
		row := model.TicketNFT{
			BatchUUID:    result.BatchUUID,
			TicketNumber: oc.TicketNumber,
			Wallet:       result.Wallet,
			Status:       model.TicketStatusFailed,
			Attributes:   datatypes.JSON(attrs),
			ExternalID:   optional(oc.ExternalID),
			MintAddress:  optional(oc.MintAddress),
			TxID:         optional(oc.TxID),
			ErrorKind:    optional(oc.ErrorKind),
			ErrorMessage: optional(oc.Error),
		}
		if oc.Success {
			row.Status = model.TicketStatusMinted
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
