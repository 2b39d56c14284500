package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockMovement is the append-only quantity ledger. Summing deltas for an
// (item, location) in id order must equal the current on-hand; drift is an
// invariant violation, never silently corrected.
type StockMovement struct {
	ID         int             `gorm:"primary_key" json:"id"`
	BusinessId string          `gorm:"index;not null;index:idx_mv_item_loc,priority:1;size:64" json:"business_id"`
	ItemId     int             `gorm:"not null;index:idx_mv_item_loc,priority:2" json:"item_id"`
	LocationId int             `gorm:"not null;index:idx_mv_item_loc,priority:3" json:"location_id"`
	Delta      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"delta"`
	Reason     MovementReason  `gorm:"size:20;not null;index" json:"reason"`
	RefType    MovementRefType `gorm:"size:30" json:"ref_type"`
	RefId      int             `gorm:"index" json:"ref_id"`
	Reference  string          `gorm:"size:100;index" json:"reference"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

// Ledger immutability guardrails: stock_movements are append-only.

func (m *StockMovement) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: stock_movements cannot be updated")
}

func (m *StockMovement) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: stock_movements cannot be deleted")
}

// SumMovements recomputes on-hand from the ledger for cross-checks and rebuilds.
func SumMovements(ctx context.Context, businessId string, itemId, locationId int) (decimal.Decimal, error) {
	db := config.GetDB()
	var total decimal.Decimal
	err := db.WithContext(ctx).Model(&StockMovement{}).
		Where("business_id = ? AND item_id = ? AND location_id = ?", businessId, itemId, locationId).
		Select("COALESCE(SUM(delta), 0)").Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func ListMovements(ctx context.Context, businessId string, itemId, locationId int) ([]*StockMovement, error) {
	db := config.GetDB()
	var movements []*StockMovement
	err := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ? AND location_id = ?", businessId, itemId, locationId).
		Order("id").Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}
