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

type Sale struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null;uniqueIndex:uniq_sale_invoice,priority:1;size:64" json:"business_id"`
	InvoiceNumber  string          `gorm:"size:30;not null;uniqueIndex:uniq_sale_invoice,priority:2" json:"invoice_number"`
	SaleDate       time.Time       `gorm:"not null;index" json:"sale_date"`
	CustomerId     int             `gorm:"index" json:"customer_id"`
	LocationId     int             `gorm:"not null;index" json:"location_id"`
	SaleType       SaleType        `gorm:"size:20;not null" json:"sale_type"`
	PaymentType    PaymentType     `gorm:"size:20;not null" json:"payment_type"`
	PaymentStatus  PaymentStatus   `gorm:"size:20;not null;index" json:"payment_status"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_cost"`
	JournalId      int             `gorm:"index" json:"journal_id"`
	VoidedAt       *time.Time      `json:"voided_at"`
	VoidJournalId  *int            `json:"void_journal_id"`
	Notes          string          `gorm:"size:255" json:"notes"`
	Lines          []SaleLine      `gorm:"foreignKey:SaleId" json:"lines"`
	CreatedBy      int             `gorm:"index" json:"created_by"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type SaleLine struct {
	ID         int             `gorm:"primary_key" json:"id"`
	SaleId     int             `gorm:"not null;index" json:"sale_id"`
	BusinessId string          `gorm:"index;not null;size:64" json:"business_id"`
	ItemId     int             `gorm:"not null;index" json:"item_id"`
	Qty        int             `gorm:"not null" json:"qty"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
}

func (s *Sale) IsVoided() bool {
	return s.VoidedAt != nil
}

type NewSaleLine struct {
	ItemId    int              `json:"item_id" validate:"required"`
	Qty       int              `json:"qty" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type NewSale struct {
	SaleDate       time.Time        `json:"sale_date"`
	CustomerId     int              `json:"customer_id"`
	LocationId     int              `json:"location_id"`
	SaleType       SaleType         `json:"sale_type"`
	PaymentType    PaymentType      `json:"payment_type" validate:"required"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	Notes          string           `json:"notes"`
	Lines          []NewSaleLine    `json:"lines" validate:"required,min=1,dive"`

	// Installment terms, required when PaymentType is installment.
	// StartDate is the first due date; zero means one period after the sale.
	DownPayment     decimal.Decimal      `json:"down_payment"`
	NumInstallments int                  `json:"num_installments"`
	Frequency       InstallmentFrequency `json:"frequency"`
	StartDate       time.Time            `json:"start_date"`
}

// SaleTotals is the arithmetic of an invoice, separated out so it can be
// checked without a database.
type SaleTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeSaleTotals rounds each line to money scale, applies the discount to
// the subtotal and the tax rate to the discounted amount.
func ComputeSaleTotals(lineTotals []decimal.Decimal, discount decimal.Decimal, taxRate decimal.Decimal, roundingMode string) (SaleTotals, error) {
	subtotal := decimal.Zero
	for _, lineTotal := range lineTotals {
		subtotal = subtotal.Add(utils.RoundMoney(lineTotal, roundingMode))
	}
	if discount.IsNegative() {
		return SaleTotals{}, utils.NewValidationError("discount_amount", "discount must not be negative")
	}
	if discount.GreaterThan(subtotal) {
		return SaleTotals{}, utils.NewValidationError("discount_amount", "discount exceeds subtotal")
	}
	if taxRate.IsNegative() {
		return SaleTotals{}, utils.NewValidationError("tax_rate", "tax rate must not be negative")
	}
	taxable := subtotal.Sub(discount)
	tax := utils.RoundMoney(taxable.Mul(taxRate), roundingMode)
	return SaleTotals{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}, nil
}

func (input *NewSale) Validate(ctx context.Context, businessId string) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.PaymentType.Valid() {
		return utils.NewValidationError("payment_type", "invalid payment type")
	}
	if input.SaleType != "" && input.SaleType != SaleTypeRetail && input.SaleType != SaleTypeWholesale {
		return utils.NewValidationError("sale_type", "invalid sale type")
	}
	itemIds := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return utils.NewValidationError("lines", "unit price must not be negative")
		}
		itemIds = append(itemIds, line.ItemId)
	}
	if err := utils.ValidateResourcesId[Item](ctx, businessId, utils.UniqueSlice(itemIds)); err != nil {
		return err
	}
	if input.CustomerId > 0 {
		if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
			return utils.NewValidationError("customer_id", "customer not found")
		}
	}
	if input.LocationId > 0 {
		if err := utils.ValidateResourceId[Location](ctx, businessId, input.LocationId); err != nil {
			return utils.NewValidationError("location_id", "location not found")
		}
	}
	if input.PaymentType == PaymentTypeInstallment {
		if input.CustomerId <= 0 {
			return utils.NewValidationError("customer_id", "installment sale requires a customer")
		}
		if input.NumInstallments <= 0 {
			return utils.NewValidationError("num_installments", "must be greater than zero")
		}
		if !input.Frequency.Valid() {
			return utils.NewValidationError("frequency", "invalid frequency")
		}
		if input.DownPayment.IsNegative() {
			return utils.NewValidationError("down_payment", "must not be negative")
		}
		saleDate := input.SaleDate
		if saleDate.IsZero() {
			saleDate = time.Now().UTC()
		}
		if !input.StartDate.IsZero() && input.StartDate.Before(utils.StartOfDay(saleDate)) {
			return utils.NewValidationError("start_date", "must not be before the sale date")
		}
	}
	return nil
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Sale](ctx, businessId, id, "Lines")
}

func FetchSaleForUpdate(tx *gorm.DB, ctx context.Context, businessId string, id int) (*Sale, error) {
	return utils.FetchModelForUpdate[Sale](tx, ctx, businessId, id, "Lines")
}

func ListSales(ctx context.Context, from, to time.Time) ([]*Sale, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var sales []*Sale
	err := db.WithContext(ctx).Preload("Lines").
		Where("business_id = ? AND sale_date >= ? AND sale_date <= ?",
			businessId, utils.StartOfDay(from), utils.EndOfDay(to)).
		Order("sale_date, id").
		Find(&sales).Error
	if err != nil {
		return nil, err
	}
	return sales, nil
}
