package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoidSale cancels a posted sale without touching its history: stock comes
// back through new movements and the journal is undone by a linked reversal.
// An installment sale can only be voided while nothing has been collected.
func VoidSale(ctx context.Context, saleId int) (*models.Sale, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var voided *models.Sale
	err := runPostingTransaction(ctx, businessId, func(tx *gorm.DB) error {
		sale, err := models.FetchSaleForUpdate(tx, ctx, businessId, saleId)
		if err != nil {
			return err
		}
		if sale.IsVoided() {
			return utils.NewValidationError("id", "sale is already voided")
		}

		plan, err := models.FetchPlanBySaleForUpdate(tx, ctx, businessId, saleId)
		if err != nil && err != utils.ErrorRecordNotFound {
			return err
		}
		if plan != nil {
			for _, payment := range plan.Payments {
				if payment.PaidAmount.IsPositive() {
					return utils.NewValidationError("id", "sale has collected installments")
				}
			}
		}

		for _, line := range sale.Lines {
			qty := decimal.NewFromInt(int64(line.Qty))
			err := models.AdjustStock(tx, ctx, businessId, line.ItemId, sale.LocationId,
				qty, models.MovementReasonVoid, models.MovementRefTypeSale,
				sale.ID, sale.InvoiceNumber)
			if err != nil {
				return err
			}
		}

		original, err := utils.FetchModelForUpdate[models.Journal](tx, ctx, businessId, sale.JournalId, "Lines")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		reversal, err := reverseJournalTx(tx, ctx, businessId, original,
			models.JournalRefTypeSaleVoid, sale.ID,
			"Void of sale "+sale.InvoiceNumber, now)
		if err != nil {
			return err
		}

		if plan != nil && plan.Status == models.PlanStatusActive {
			if plan.OutstandingAmount.IsPositive() {
				err := models.AdjustCustomerCredit(tx, ctx, businessId, plan.CustomerId,
					plan.OutstandingAmount.Neg())
				if err != nil {
					return err
				}
			}
			err = tx.WithContext(ctx).Model(&models.InstallmentPlan{}).
				Where("id = ? AND business_id = ?", plan.ID, businessId).
				Updates(map[string]interface{}{
					"status":             models.PlanStatusCancelled,
					"outstanding_amount": decimal.Zero,
				}).Error
			if err != nil {
				return err
			}
		}

		err = tx.WithContext(ctx).Model(sale).Updates(map[string]interface{}{
			"VoidedAt":      now,
			"VoidJournalId": reversal.ID,
		}).Error
		if err != nil {
			return err
		}

		voided = sale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return voided, nil
}
