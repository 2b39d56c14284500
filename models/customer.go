package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null;size:64" json:"business_id"`
	Name          string          `gorm:"size:255;not null;index" json:"name"`
	Contact       string          `gorm:"size:255" json:"contact"`
	CreditLimit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit_limit"`
	CurrentCredit decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_credit"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name        string          `json:"name" validate:"required"`
	Contact     string          `json:"contact"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	if input.CreditLimit.IsNegative() {
		return nil, utils.NewValidationError("credit_limit", "must not be negative")
	}

	customer := Customer{
		BusinessId:  businessId,
		Name:        input.Name,
		Contact:     input.Contact,
		CreditLimit: input.CreditLimit,
		IsActive:    newTrue(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := utils.ValidateInput(input); err != nil {
		return nil, err
	}
	customer, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Model(customer).Updates(map[string]interface{}{
		"Name":        input.Name,
		"Contact":     input.Contact,
		"CreditLimit": input.CreditLimit,
	}).Error
	if err != nil {
		return nil, err
	}
	return customer, nil
}

func DeactivateCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	customer, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(customer).Update("IsActive", false).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Customer](ctx, businessId, id)
}

// AdjustCustomerCredit moves CurrentCredit by delta under a row lock.
// Positive deltas are checked against the credit limit.
func AdjustCustomerCredit(tx *gorm.DB, ctx context.Context, businessId string, customerId int, delta decimal.Decimal) error {
	customer, err := utils.FetchModelForUpdate[Customer](tx, ctx, businessId, customerId)
	if err != nil {
		return err
	}
	next := customer.CurrentCredit.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	if delta.IsPositive() && next.GreaterThan(customer.CreditLimit) {
		return utils.ErrCreditLimitExceeded
	}
	return tx.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", customer.ID).
		Update("current_credit", next).Error
}
