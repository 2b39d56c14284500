package models

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
)

// Business is the tenant unit: one shop owner and their data. Every other
// table carries business_id; the tenant guard plugin scopes statements to it.
type Business struct {
	ID          string    `gorm:"primary_key;size:64" json:"id"`
	DisplayName string    `gorm:"size:255;not null" json:"display_name"`
	Timezone    string    `gorm:"size:64;default:'UTC'" json:"timezone"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBusiness struct {
	DisplayName string `json:"display_name" validate:"required"`
	Timezone    string `json:"timezone"`
}

// CreateBusiness onboards a tenant: the business row, its default location
// and the standard chart of accounts, in one transaction.
func CreateBusiness(ctx context.Context, input *NewBusiness) (*Business, error) {
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if input.Timezone == "" {
		input.Timezone = "UTC"
	}

	business := Business{
		ID:          uuid.NewString(),
		DisplayName: input.DisplayName,
		Timezone:    input.Timezone,
		IsActive:    newTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&business).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	bizCtx := utils.SetBusinessIdInContext(ctx, business.ID)
	if _, err := createLocationTx(tx, bizCtx, business.ID, &NewLocation{
		Name:      "Main Store",
		Type:      LocationTypeStore,
		IsDefault: true,
	}); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := initializeChartTx(tx, bizCtx, business.ID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &business, nil
}

func GetBusinessById(ctx context.Context, businessId string) (*Business, error) {
	db := config.GetDB()
	var business Business
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &business, nil
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return GetBusinessById(ctx, businessId)
}

func newTrue() *bool {
	b := true
	return &b
}

func newFalse() *bool {
	b := false
	return &b
}
