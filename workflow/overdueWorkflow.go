package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"gorm.io/gorm"
)

// MarkOverduePayments flips pending installments past their due date to
// overdue for one business. Returns how many payments were flagged.
// Money and journals are untouched; overdue is a collection signal only.
func MarkOverduePayments(ctx context.Context, asOf time.Time) (int, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return 0, errors.New("business id is required")
	}

	flagged := 0
	err := runInTransaction(ctx, func(tx *gorm.DB) error {
		flagged = 0
		var plans []*models.InstallmentPlan
		err := tx.WithContext(ctx).Preload("Payments").
			Where("business_id = ? AND status = ?", businessId, models.PlanStatusActive).
			Find(&plans).Error
		if err != nil {
			return err
		}

		for _, plan := range plans {
			for _, payment := range models.OverduePayments(plan.Payments, asOf) {
				err := tx.WithContext(ctx).Model(&models.InstallmentPayment{}).
					Where("id = ? AND business_id = ? AND status = ?",
						payment.ID, businessId, models.InstallmentPaymentPending).
					Update("status", models.InstallmentPaymentOverdue).Error
				if err != nil {
					return err
				}
				flagged++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if flagged > 0 {
		config.GetLogger().WithField("business_id", businessId).
			WithField("flagged", flagged).Info("overdue installments flagged")
	}
	return flagged, nil
}
