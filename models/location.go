package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"gorm.io/gorm"
)

type Location struct {
	ID         int          `gorm:"primary_key" json:"id"`
	BusinessId string       `gorm:"index;not null;size:64" json:"business_id"`
	Name       string       `gorm:"size:255;not null" json:"name"`
	Type       LocationType `gorm:"size:20;not null;default:'store'" json:"type"`
	IsDefault  *bool        `gorm:"not null;default:false;index" json:"is_default"`
	IsActive   *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLocation struct {
	Name      string       `json:"name" validate:"required"`
	Type      LocationType `json:"type" validate:"required"`
	IsDefault bool         `json:"is_default"`
}

func (input *NewLocation) validate() error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.Type.Valid() {
		return utils.NewValidationError("type", "must be store, warehouse or outlet")
	}
	return nil
}

// createLocationTx inserts inside an existing transaction; exactly one default
// location is kept per tenant by demoting any previous default.
func createLocationTx(tx *gorm.DB, ctx context.Context, businessId string, input *NewLocation) (*Location, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	location := Location{
		BusinessId: businessId,
		Name:       input.Name,
		Type:       input.Type,
		IsDefault:  &input.IsDefault,
		IsActive:   newTrue(),
	}
	if input.IsDefault {
		if err := tx.WithContext(ctx).Model(&Location{}).
			Where("business_id = ? AND is_default = ?", businessId, true).
			Update("is_default", false).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func CreateLocation(ctx context.Context, input *NewLocation) (*Location, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	location, err := createLocationTx(tx, ctx, businessId, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return location, nil
}

// DeactivateLocation refuses while stock remains; drain it first.
func DeactivateLocation(ctx context.Context, id int) (*Location, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	location, err := utils.FetchModel[Location](ctx, businessId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var remaining int64
	if err := db.WithContext(ctx).Model(&LocationStock{}).
		Where("business_id = ? AND location_id = ? AND on_hand > 0", businessId, id).
		Count(&remaining).Error; err != nil {
		return nil, err
	}
	if remaining > 0 {
		return nil, utils.NewValidationError("location_id", "location still holds stock")
	}
	if err := db.WithContext(ctx).Model(location).Update("IsActive", false).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func GetDefaultLocation(ctx context.Context, businessId string) (*Location, error) {
	db := config.GetDB()
	var location Location
	err := db.WithContext(ctx).
		Where("business_id = ? AND is_default = ? AND is_active = ?", businessId, true, true).
		First(&location).Error
	if err != nil {
		return nil, errors.New("no default location configured")
	}
	return &location, nil
}

func ListLocations(ctx context.Context) ([]*Location, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Location](ctx, businessId)
}
