package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockTransfer struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	BusinessId     string              `gorm:"index;not null;size:64" json:"business_id"`
	TransferNumber string              `gorm:"size:100;not null" json:"transfer_number"`
	FromLocationId int                 `gorm:"not null;index" json:"from_location_id"`
	ToLocationId   int                 `gorm:"not null;index" json:"to_location_id"`
	Status         TransferStatus      `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Reference      string              `gorm:"size:100;index" json:"reference"`
	Lines          []StockTransferLine `gorm:"foreignKey:TransferId" json:"lines"`
	CompletedAt    *time.Time          `json:"completed_at"`
	CancelledAt    *time.Time          `json:"cancelled_at"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type StockTransferLine struct {
	ID         int             `gorm:"primary_key" json:"id"`
	TransferId int             `gorm:"index;not null" json:"transfer_id"`
	ItemId     int             `gorm:"not null" json:"item_id"`
	Qty        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
}

type NewStockTransfer struct {
	FromLocationId int                    `json:"from_location_id" validate:"required"`
	ToLocationId   int                    `json:"to_location_id" validate:"required"`
	Lines          []NewStockTransferLine `json:"lines" validate:"required,min=1,dive"`
}

type NewStockTransferLine struct {
	ItemId int             `json:"item_id" validate:"required"`
	Qty    decimal.Decimal `json:"qty"`
}

func (input *NewStockTransfer) validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if input.FromLocationId == input.ToLocationId {
		return utils.NewValidationError("to_location_id", "transfer to the same location")
	}
	if err := utils.ValidateResourceId[Location](ctx, businessId, input.FromLocationId); err != nil {
		return utils.NewValidationError("from_location_id", "location not found")
	}
	if err := utils.ValidateResourceId[Location](ctx, businessId, input.ToLocationId); err != nil {
		return utils.NewValidationError("to_location_id", "location not found")
	}
	itemIds := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		if !line.Qty.IsPositive() {
			return utils.NewValidationError("qty", "must be positive")
		}
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, businessId, itemIds); err != nil {
		return utils.NewValidationError("item_id", "item not found")
	}
	return nil
}

// CreateTransfer records the intent in pending and reserves the quantities
// at the source location. On-hand does not move until completion, but the
// reserved stock can no longer be sold from under the transfer.
func CreateTransfer(ctx context.Context, input *NewStockTransfer) (*StockTransfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	lines := make([]StockTransferLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, StockTransferLine{
			ItemId: line.ItemId,
			Qty:    line.Qty,
		})
	}
	transfer := StockTransfer{
		BusinessId:     businessId,
		FromLocationId: input.FromLocationId,
		ToLocationId:   input.ToLocationId,
		Status:         TransferStatusPending,
		Reference:      uuid.NewString(),
		Lines:          lines,
	}

	db := config.GetDB()
	tx := db.Begin()
	seqNo, err := NextSequence(tx, ctx, businessId, SequenceScopeTransfer)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	transfer.TransferNumber = FormatSequence(SequenceScopeTransfer, seqNo)
	if err := tx.WithContext(ctx).Create(&transfer).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, line := range transfer.Lines {
		if err := ReserveStock(tx, ctx, businessId, line.ItemId, transfer.FromLocationId, line.Qty); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}

func fetchTransferForUpdate(tx *gorm.DB, ctx context.Context, businessId string, id int) (*StockTransfer, error) {
	var transfer StockTransfer
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines").
		Where("business_id = ?", businessId).
		First(&transfer, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &transfer, nil
}

// AdvanceTransfer moves pending -> in_transit. The reservation taken at
// creation stays in place while the goods travel.
func AdvanceTransfer(ctx context.Context, id int) (*StockTransfer, error) {
	return transitionTransfer(ctx, id, TransferStatusInTransit)
}

// CompleteTransfer consumes the source reservation and raises the destination:
// one movement pair per line sharing the transfer reference. Only an
// in_transit transfer can complete; pending ones advance first.
func CompleteTransfer(ctx context.Context, id int) (*StockTransfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	transfer, err := fetchTransferForUpdate(tx, ctx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !transfer.Status.CanTransitionTo(TransferStatusCompleted) {
		tx.Rollback()
		return nil, utils.NewValidationError("status",
			"cannot move "+string(transfer.Status)+" transfer to "+string(TransferStatusCompleted))
	}

	for _, line := range transfer.Lines {
		if err := CommitReservation(tx, ctx, businessId, line.ItemId, transfer.FromLocationId,
			line.Qty, MovementReasonTransfer, MovementRefTypeTransfer, transfer.ID, transfer.Reference); err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := AdjustStock(tx, ctx, businessId, line.ItemId, transfer.ToLocationId,
			line.Qty, MovementReasonTransfer, MovementRefTypeTransfer, transfer.ID, transfer.Reference); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	err = tx.WithContext(ctx).Model(&StockTransfer{}).
		Where("id = ?", transfer.ID).
		Updates(map[string]interface{}{
			"status":       TransferStatusCompleted,
			"completed_at": &now,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	transfer.Status = TransferStatusCompleted
	transfer.CompletedAt = &now
	return transfer, nil
}

// CancelTransfer is allowed only while pending; the source reservation is
// handed back to available stock.
func CancelTransfer(ctx context.Context, id int) (*StockTransfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	transfer, err := fetchTransferForUpdate(tx, ctx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !transfer.Status.CanTransitionTo(TransferStatusCancelled) {
		tx.Rollback()
		return nil, utils.NewValidationError("status",
			"cannot move "+string(transfer.Status)+" transfer to "+string(TransferStatusCancelled))
	}

	for _, line := range transfer.Lines {
		if err := ReleaseReservation(tx, ctx, businessId, line.ItemId, transfer.FromLocationId, line.Qty); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	now := time.Now().UTC()
	err = tx.WithContext(ctx).Model(&StockTransfer{}).
		Where("id = ?", transfer.ID).
		Updates(map[string]interface{}{
			"status":       TransferStatusCancelled,
			"cancelled_at": &now,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	transfer.Status = TransferStatusCancelled
	transfer.CancelledAt = &now
	return transfer, nil
}

func transitionTransfer(ctx context.Context, id int, next TransferStatus) (*StockTransfer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	transfer, err := fetchTransferForUpdate(tx, ctx, businessId, id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !transfer.Status.CanTransitionTo(next) {
		tx.Rollback()
		return nil, utils.NewValidationError("status",
			"cannot move "+string(transfer.Status)+" transfer to "+string(next))
	}
	if err := tx.WithContext(ctx).Model(&StockTransfer{}).
		Where("id = ?", transfer.ID).Update("status", next).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	transfer.Status = next
	return transfer, nil
}
