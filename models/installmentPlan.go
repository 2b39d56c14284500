package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InstallmentPlan carries the financed remainder of an installment sale.
// OutstandingAmount always equals TotalFinanced minus the sum of paid amounts.
type InstallmentPlan struct {
	ID                int                  `gorm:"primary_key" json:"id"`
	BusinessId        string               `gorm:"index;not null;size:64" json:"business_id"`
	SaleId            int                  `gorm:"not null;uniqueIndex:uniq_plan_sale" json:"sale_id"`
	CustomerId        int                  `gorm:"not null;index" json:"customer_id"`
	TotalFinanced     decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"total_financed"`
	DownPayment       decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"down_payment"`
	OutstandingAmount decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"outstanding_amount"`
	NumInstallments   int                  `gorm:"not null" json:"num_installments"`
	Frequency         InstallmentFrequency `gorm:"size:20;not null" json:"frequency"`
	Status            PlanStatus           `gorm:"size:20;not null;index" json:"status"`
	StartDate         time.Time            `gorm:"not null" json:"start_date"`
	Payments          []InstallmentPayment `gorm:"foreignKey:PlanId" json:"payments"`
	CreatedAt         time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type InstallmentPayment struct {
	ID         int                      `gorm:"primary_key" json:"id"`
	PlanId     int                      `gorm:"not null;index" json:"plan_id"`
	BusinessId string                   `gorm:"index;not null;size:64" json:"business_id"`
	SeqNo      int                      `gorm:"not null" json:"seq_no"`
	DueDate    time.Time                `gorm:"not null;index" json:"due_date"`
	DueAmount  decimal.Decimal          `gorm:"type:decimal(20,4);not null" json:"due_amount"`
	PaidAmount decimal.Decimal          `gorm:"type:decimal(20,4);not null" json:"paid_amount"`
	PaidAt     *time.Time               `json:"paid_at"`
	JournalId  *int                     `json:"journal_id"`
	Status     InstallmentPaymentStatus `gorm:"size:20;not null;index" json:"status"`
	CreatedAt  time.Time                `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time                `gorm:"autoUpdateTime" json:"updated_at"`
}

// ScheduledInstallment is one row of a computed schedule, before persistence.
type ScheduledInstallment struct {
	SeqNo     int
	DueDate   time.Time
	DueAmount decimal.Decimal
}

// BuildInstallmentSchedule splits the financed amount into count equal
// payments, the last one absorbing the rounding remainder, with due dates
// advancing by the frequency from the first due date.
func BuildInstallmentSchedule(financed decimal.Decimal, count int, frequency InstallmentFrequency, firstDueDate time.Time) []ScheduledInstallment {
	amounts := utils.SplitEvenly(financed, count)
	schedule := make([]ScheduledInstallment, 0, len(amounts))
	dueDate := utils.StartOfDay(firstDueDate)
	for i, amount := range amounts {
		schedule = append(schedule, ScheduledInstallment{
			SeqNo:     i + 1,
			DueDate:   dueDate,
			DueAmount: amount,
		})
		dueDate = utils.AddFrequency(dueDate, string(frequency))
	}
	return schedule
}

// ResolveFirstDueDate picks the schedule anchor: the agreed start date when
// given, otherwise one period after the sale date.
func ResolveFirstDueDate(saleDate, startDate time.Time, frequency InstallmentFrequency) time.Time {
	if !startDate.IsZero() {
		return utils.StartOfDay(startDate)
	}
	return utils.AddFrequency(utils.StartOfDay(saleDate), string(frequency))
}

// CreateInstallmentPlanTx writes the plan and its schedule in the caller's
// transaction.
func CreateInstallmentPlanTx(tx *gorm.DB, ctx context.Context, businessId string, sale *Sale, financed decimal.Decimal, downPayment decimal.Decimal, count int, frequency InstallmentFrequency, startDate time.Time) (*InstallmentPlan, error) {
	firstDueDate := ResolveFirstDueDate(sale.SaleDate, startDate, frequency)
	schedule := BuildInstallmentSchedule(financed, count, frequency, firstDueDate)

	payments := make([]InstallmentPayment, 0, len(schedule))
	for _, scheduled := range schedule {
		payments = append(payments, InstallmentPayment{
			BusinessId: businessId,
			SeqNo:      scheduled.SeqNo,
			DueDate:    scheduled.DueDate,
			DueAmount:  scheduled.DueAmount,
			PaidAmount: decimal.Zero,
			Status:     InstallmentPaymentPending,
		})
	}
	plan := InstallmentPlan{
		BusinessId:        businessId,
		SaleId:            sale.ID,
		CustomerId:        sale.CustomerId,
		TotalFinanced:     financed,
		DownPayment:       downPayment,
		OutstandingAmount: financed,
		NumInstallments:   count,
		Frequency:         frequency,
		Status:            PlanStatusActive,
		StartDate:         utils.StartOfDay(sale.SaleDate),
		Payments:          payments,
	}
	if err := tx.WithContext(ctx).Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func GetInstallmentPlan(ctx context.Context, id int) (*InstallmentPlan, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[InstallmentPlan](ctx, businessId, id, "Payments")
}

func GetInstallmentPlanBySale(ctx context.Context, saleId int) (*InstallmentPlan, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var plan InstallmentPlan
	err := db.WithContext(ctx).Preload("Payments").
		Where("business_id = ? AND sale_id = ?", businessId, saleId).
		First(&plan).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &plan, nil
}

// FetchPlanBySaleForUpdate locks a sale's plan row inside tx. Returns
// ErrorRecordNotFound when the sale has no plan.
func FetchPlanBySaleForUpdate(tx *gorm.DB, ctx context.Context, businessId string, saleId int) (*InstallmentPlan, error) {
	var plan InstallmentPlan
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND sale_id = ?", businessId, saleId).
		First(&plan).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	err = tx.WithContext(ctx).
		Where("plan_id = ?", plan.ID).
		Order("seq_no").
		Find(&plan.Payments).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func FetchPlanForUpdate(tx *gorm.DB, ctx context.Context, businessId string, id int) (*InstallmentPlan, error) {
	var plan InstallmentPlan
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ?", businessId).
		First(&plan, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	err = tx.WithContext(ctx).
		Where("plan_id = ?", plan.ID).
		Order("seq_no").
		Find(&plan.Payments).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// OverduePayments returns the pending payments whose due date has passed.
// Pure so the scan can be checked without a database.
func OverduePayments(payments []InstallmentPayment, asOf time.Time) []InstallmentPayment {
	cutoff := utils.StartOfDay(asOf)
	var overdue []InstallmentPayment
	for _, payment := range payments {
		if payment.Status == InstallmentPaymentPending && payment.DueDate.Before(cutoff) {
			overdue = append(overdue, payment)
		}
	}
	return overdue
}

func ListActivePlans(ctx context.Context) ([]*InstallmentPlan, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var plans []*InstallmentPlan
	err := db.WithContext(ctx).Preload("Payments").
		Where("business_id = ? AND status = ?", businessId, PlanStatusActive).
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
