package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocationStock is the authoritative per-(item, location) quantity row.
// Invariant: OnHand >= Reserved >= 0; available = OnHand - Reserved.
// Concurrent writers serialize on this row via FOR UPDATE reads.
type LocationStock struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null;uniqueIndex:uniq_stock_item_loc,priority:1;size:64" json:"business_id"`
	ItemId       int             `gorm:"not null;uniqueIndex:uniq_stock_item_loc,priority:2;index" json:"item_id"`
	LocationId   int             `gorm:"not null;uniqueIndex:uniq_stock_item_loc,priority:3;index" json:"location_id"`
	OnHand       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"on_hand"`
	Reserved     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reserved"`
	MinThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_threshold"`
	MaxThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"max_threshold"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *LocationStock) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Reserved)
}

// lockLocationStock reads the row FOR UPDATE, creating it when absent.
// The lock is held until the surrounding transaction ends.
func lockLocationStock(tx *gorm.DB, ctx context.Context, businessId string, itemId, locationId int) (*LocationStock, error) {
	stock := LocationStock{
		BusinessId: businessId,
		ItemId:     itemId,
		LocationId: locationId,
	}
	result := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND item_id = ? AND location_id = ?", businessId, itemId, locationId).
		FirstOrCreate(&stock)
	if result.Error != nil {
		return nil, result.Error
	}
	return &stock, nil
}

// AdjustStock applies a signed delta to on-hand under the row lock and
// appends the movement. Negative deltas that would leave on-hand below the
// reserved quantity fail with ErrInsufficientStock.
func AdjustStock(tx *gorm.DB, ctx context.Context, businessId string, itemId, locationId int,
	delta decimal.Decimal, reason MovementReason, refType MovementRefType, refId int, reference string) error {

	if delta.IsZero() {
		return utils.NewValidationError("delta", "must be nonzero")
	}

	stock, err := lockLocationStock(tx, ctx, businessId, itemId, locationId)
	if err != nil {
		return err
	}

	next := stock.OnHand.Add(delta)
	if next.IsNegative() || next.LessThan(stock.Reserved) {
		config.MetricInsufficientStock.Inc()
		return utils.ErrInsufficientStock
	}

	if err := tx.WithContext(ctx).Model(&LocationStock{}).
		Where("id = ?", stock.ID).
		Update("on_hand", next).Error; err != nil {
		return err
	}

	movement := StockMovement{
		BusinessId: businessId,
		ItemId:     itemId,
		LocationId: locationId,
		Delta:      delta,
		Reason:     reason,
		RefType:    refType,
		RefId:      refId,
		Reference:  reference,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return err
	}
	return nil
}

// ReserveStock earmarks qty without touching on-hand.
func ReserveStock(tx *gorm.DB, ctx context.Context, businessId string, itemId, locationId int, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return utils.NewValidationError("qty", "must be positive")
	}
	stock, err := lockLocationStock(tx, ctx, businessId, itemId, locationId)
	if err != nil {
		return err
	}
	if stock.Available().LessThan(qty) {
		config.MetricInsufficientStock.Inc()
		return utils.ErrInsufficientStock
	}
	return tx.WithContext(ctx).Model(&LocationStock{}).
		Where("id = ?", stock.ID).
		Update("reserved", stock.Reserved.Add(qty)).Error
}

// CommitReservation consumes a reservation: on-hand and reserved both drop by qty.
// Must run in the reserving transaction or a follow-up against the same reference.
func CommitReservation(tx *gorm.DB, ctx context.Context, businessId string, itemId, locationId int,
	qty decimal.Decimal, reason MovementReason, refType MovementRefType, refId int, reference string) error {

	if !qty.IsPositive() {
		return utils.NewValidationError("qty", "must be positive")
	}
	stock, err := lockLocationStock(tx, ctx, businessId, itemId, locationId)
	if err != nil {
		return err
	}
	if stock.Reserved.LessThan(qty) || stock.OnHand.LessThan(qty) {
		return utils.NewInvariantViolation("reservation",
			fmt.Sprintf("commit of %s exceeds reserved %s / on-hand %s for item=%d location=%d",
				qty, stock.Reserved, stock.OnHand, itemId, locationId))
	}
	err = tx.WithContext(ctx).Model(&LocationStock{}).
		Where("id = ?", stock.ID).
		Updates(map[string]interface{}{
			"on_hand":  stock.OnHand.Sub(qty),
			"reserved": stock.Reserved.Sub(qty),
		}).Error
	if err != nil {
		return err
	}
	movement := StockMovement{
		BusinessId: businessId,
		ItemId:     itemId,
		LocationId: locationId,
		Delta:      qty.Neg(),
		Reason:     reason,
		RefType:    refType,
		RefId:      refId,
		Reference:  reference,
	}
	return tx.WithContext(ctx).Create(&movement).Error
}

// ReleaseReservation frees qty back to available without touching on-hand.
func ReleaseReservation(tx *gorm.DB, ctx context.Context, businessId string, itemId, locationId int, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return utils.NewValidationError("qty", "must be positive")
	}
	stock, err := lockLocationStock(tx, ctx, businessId, itemId, locationId)
	if err != nil {
		return err
	}
	if stock.Reserved.LessThan(qty) {
		return utils.NewInvariantViolation("reservation",
			fmt.Sprintf("release of %s exceeds reserved %s for item=%d location=%d",
				qty, stock.Reserved, itemId, locationId))
	}
	return tx.WithContext(ctx).Model(&LocationStock{}).
		Where("id = ?", stock.ID).
		Update("reserved", stock.Reserved.Sub(qty)).Error
}

// GetOnHand sums an item's on-hand quantity across all locations.
func GetOnHand(ctx context.Context, businessId string, itemId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var total decimal.Decimal
	err := db.WithContext(ctx).Model(&LocationStock{}).
		Where("business_id = ? AND item_id = ?", businessId, itemId).
		Select("COALESCE(SUM(on_hand), 0)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

type ManualAdjustmentInput struct {
	ItemId     int             `json:"item_id" validate:"required"`
	LocationId int             `json:"location_id" validate:"required"`
	Delta      decimal.Decimal `json:"delta"`
	Reason     string          `json:"reason"`
}

// AdjustStockManual is the operator-facing entry point for stock corrections.
func AdjustStockManual(ctx context.Context, input *ManualAdjustmentInput) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Item](ctx, businessId, input.ItemId); err != nil {
		return utils.NewValidationError("item_id", "item not found")
	}
	if err := utils.ValidateResourceId[Location](ctx, businessId, input.LocationId); err != nil {
		return utils.NewValidationError("location_id", "location not found")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AdjustStock(tx, ctx, businessId, input.ItemId, input.LocationId,
		input.Delta, MovementReasonAdjustment, MovementRefTypeManual, 0, input.Reason); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// LowStockItem is an active item whose on-hand summed over all locations has
// fallen to or below its reorder threshold.
type LowStockItem struct {
	ItemId           int             `json:"item_id"`
	Name             string          `json:"name"`
	Sku              string          `json:"sku"`
	OnHand           decimal.Decimal `json:"on_hand"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
}

func ListLowStock(ctx context.Context) ([]*LowStockItem, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var rows []*LowStockItem
	err := db.WithContext(ctx).Raw(`
		SELECT
			i.id AS item_id,
			i.name,
			i.sku,
			COALESCE(SUM(ls.on_hand), 0) AS on_hand,
			i.reorder_threshold
		FROM items i
		LEFT JOIN location_stocks ls ON ls.item_id = i.id AND ls.business_id = i.business_id
		WHERE i.business_id = ? AND i.is_active = 1
		GROUP BY i.id, i.name, i.sku, i.reorder_threshold
		HAVING COALESCE(SUM(ls.on_hand), 0) <= i.reorder_threshold
		ORDER BY i.name
	`, businessId).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
