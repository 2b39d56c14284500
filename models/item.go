package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID               int             `gorm:"primary_key" json:"id"`
	BusinessId       string          `gorm:"index;not null;uniqueIndex:uniq_item_sku,priority:1;size:64" json:"business_id"`
	Name             string          `gorm:"size:255;not null;index" json:"name"`
	Sku              string          `gorm:"size:100;not null;uniqueIndex:uniq_item_sku,priority:2" json:"sku"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_price"`
	RetailPrice      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"retail_price"`
	WholesalePrice   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"wholesale_price"`
	ReorderThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"reorder_threshold"`
	IsActive         *bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name             string          `json:"name" validate:"required"`
	Sku              string          `json:"sku" validate:"required"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	RetailPrice      decimal.Decimal `json:"retail_price"`
	WholesalePrice   decimal.Decimal `json:"wholesale_price"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewItem) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if input.CostPrice.IsNegative() {
		return utils.NewValidationError("cost_price", "must not be negative")
	}
	if input.RetailPrice.IsNegative() {
		return utils.NewValidationError("retail_price", "must not be negative")
	}
	if input.WholesalePrice.IsNegative() {
		return utils.NewValidationError("wholesale_price", "must not be negative")
	}
	if input.ReorderThreshold.IsNegative() {
		return utils.NewValidationError("reorder_threshold", "must not be negative")
	}
	if err := utils.ValidateUnique[Item](ctx, businessId, "sku", input.Sku, id); err != nil {
		return err
	}
	return nil
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	item := Item{
		BusinessId:       businessId,
		Name:             input.Name,
		Sku:              input.Sku,
		CostPrice:        input.CostPrice,
		RetailPrice:      input.RetailPrice,
		WholesalePrice:   input.WholesalePrice,
		ReorderThreshold: input.ReorderThreshold,
		IsActive:         newTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateItem(ctx context.Context, id int, input *NewItem) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"Name":             input.Name,
		"Sku":              input.Sku,
		"CostPrice":        input.CostPrice,
		"RetailPrice":      input.RetailPrice,
		"WholesalePrice":   input.WholesalePrice,
		"ReorderThreshold": input.ReorderThreshold,
	}).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeactivateItem soft-deletes: items with sales history are never hard-deleted.
func DeactivateItem(ctx context.Context, id int) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(item).Update("IsActive", false).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func GetItem(ctx context.Context, id int) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Item](ctx, businessId, id)
}

func ListItems(ctx context.Context, activeOnly bool) ([]*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if activeOnly {
		dbCtx = dbCtx.Where("is_active = ?", true)
	}
	var items []*Item
	if err := dbCtx.Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SellingPrice resolves the unit price for a sale line when no override is given.
func (i *Item) SellingPrice(saleType SaleType) decimal.Decimal {
	if saleType == SaleTypeWholesale && i.WholesalePrice.IsPositive() {
		return i.WholesalePrice
	}
	return i.RetailPrice
}
