package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateSale posts a point-of-sale invoice: stock decrement, invoice row,
// balanced journal and, for installment sales, the payment plan and customer
// credit, all in one transaction. Any failure rolls back the whole sale.
func CreateSale(ctx context.Context, input *models.NewSale) (*models.Sale, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.Validate(ctx, businessId); err != nil {
		return nil, err
	}
	if input.SaleType == "" {
		input.SaleType = models.SaleTypeRetail
	}
	if input.SaleDate.IsZero() {
		input.SaleDate = time.Now().UTC()
	}

	opts := config.GetOptions()
	taxRate := opts.DefaultTaxRate
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}

	var sale *models.Sale
	err := runPostingTransaction(ctx, businessId, func(tx *gorm.DB) error {
		locationId := input.LocationId
		if locationId == 0 {
			location, err := models.GetDefaultLocation(ctx, businessId)
			if err != nil {
				return err
			}
			locationId = location.ID
		}

		items, err := loadSaleItems(tx, ctx, businessId, input.Lines)
		if err != nil {
			return err
		}

		lines := make([]models.SaleLine, 0, len(input.Lines))
		lineTotals := make([]decimal.Decimal, 0, len(input.Lines))
		totalCost := decimal.Zero
		for _, lineInput := range input.Lines {
			item := items[lineInput.ItemId]
			unitPrice := item.SellingPrice(input.SaleType)
			if lineInput.UnitPrice != nil {
				unitPrice = *lineInput.UnitPrice
			}
			qty := decimal.NewFromInt(int64(lineInput.Qty))
			lineTotal := utils.RoundMoney(unitPrice.Mul(qty), opts.RoundingMode)
			lines = append(lines, models.SaleLine{
				BusinessId: businessId,
				ItemId:     item.ID,
				Qty:        lineInput.Qty,
				UnitPrice:  unitPrice,
				UnitCost:   item.CostPrice,
				LineTotal:  lineTotal,
			})
			lineTotals = append(lineTotals, lineTotal)
			totalCost = totalCost.Add(item.CostPrice.Mul(qty))
		}
		totals, err := models.ComputeSaleTotals(lineTotals, input.DiscountAmount, taxRate, opts.RoundingMode)
		if err != nil {
			return err
		}

		seq, err := models.NextSequence(tx, ctx, businessId, models.SequenceScopeInvoice)
		if err != nil {
			return err
		}

		userId, _ := utils.GetUserIdFromContext(ctx)
		newSale := models.Sale{
			BusinessId:     businessId,
			InvoiceNumber:  models.FormatSequence(models.SequenceScopeInvoice, seq),
			SaleDate:       input.SaleDate,
			CustomerId:     input.CustomerId,
			LocationId:     locationId,
			SaleType:       input.SaleType,
			PaymentType:    input.PaymentType,
			PaymentStatus:  models.PaymentStatusPaid,
			Subtotal:       totals.Subtotal,
			DiscountAmount: totals.Discount,
			TaxAmount:      totals.Tax,
			TotalAmount:    totals.Total,
			TotalCost:      totalCost,
			Notes:          input.Notes,
			Lines:          lines,
			CreatedBy:      userId,
		}
		if err := tx.WithContext(ctx).Create(&newSale).Error; err != nil {
			return err
		}

		// All lines decrement or none do.
		for _, line := range newSale.Lines {
			qty := decimal.NewFromInt(int64(line.Qty))
			err := models.AdjustStock(tx, ctx, businessId, line.ItemId, locationId,
				qty.Neg(), models.MovementReasonSale, models.MovementRefTypeSale,
				newSale.ID, newSale.InvoiceNumber)
			if err != nil {
				return err
			}
		}

		financed := decimal.Zero
		cashReceived := totals.Total
		if input.PaymentType == models.PaymentTypeInstallment {
			if input.DownPayment.GreaterThan(totals.Total) {
				return utils.NewValidationError("down_payment", "exceeds sale total")
			}
			financed = totals.Total.Sub(input.DownPayment)
			cashReceived = input.DownPayment
			if financed.IsPositive() {
				if err := models.AdjustCustomerCredit(tx, ctx, businessId, input.CustomerId, financed); err != nil {
					return err
				}
				newSale.PaymentStatus = models.PaymentStatusPending
				if cashReceived.IsPositive() {
					newSale.PaymentStatus = models.PaymentStatusPartial
				}
			}
		}

		accounts, err := models.GetSystemAccounts(ctx, businessId)
		if err != nil {
			return err
		}
		journal, err := models.PostJournalTx(tx, ctx, businessId,
			saleJournal(&newSale, accounts, totals, financed, cashReceived, totalCost))
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"JournalId":     journal.ID,
			"PaymentStatus": newSale.PaymentStatus,
		}
		if err := tx.WithContext(ctx).Model(&newSale).Updates(updates).Error; err != nil {
			return err
		}

		if financed.IsPositive() {
			_, err := models.CreateInstallmentPlanTx(tx, ctx, businessId, &newSale,
				financed, input.DownPayment, input.NumInstallments, input.Frequency, input.StartDate)
			if err != nil {
				return err
			}
		}

		sale = &newSale
		return nil
	})
	if err != nil {
		return nil, err
	}

	config.MetricSalesPosted.Inc()
	return sale, nil
}

func loadSaleItems(tx *gorm.DB, ctx context.Context, businessId string, lineInputs []models.NewSaleLine) (map[int]*models.Item, error) {
	itemIds := make([]int, 0, len(lineInputs))
	for _, lineInput := range lineInputs {
		itemIds = append(itemIds, lineInput.ItemId)
	}
	itemIds = utils.UniqueSlice(itemIds)

	var items []*models.Item
	err := tx.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, itemIds).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	itemsById := make(map[int]*models.Item, len(items))
	for _, item := range items {
		if item.IsActive == nil || !*item.IsActive {
			return nil, utils.NewValidationError("lines", "item "+item.Sku+" is inactive")
		}
		itemsById[item.ID] = item
	}
	for _, id := range itemIds {
		if _, ok := itemsById[id]; !ok {
			return nil, utils.ErrorRecordNotFound
		}
	}
	return itemsById, nil
}

// saleJournal builds the invoice posting: cash and receivable on the debit
// side against revenue and tax, plus cost of goods sold against inventory.
func saleJournal(sale *models.Sale, accounts map[string]*models.Account, totals models.SaleTotals, financed, cashReceived, totalCost decimal.Decimal) *models.NewJournal {
	lines := []models.NewJournalLine{}
	if cashReceived.IsPositive() {
		lines = append(lines, models.NewJournalLine{
			AccountId: accounts[models.SystemAccountCash].ID,
			Debit:     cashReceived,
			Memo:      "payment received",
		})
	}
	if financed.IsPositive() {
		lines = append(lines, models.NewJournalLine{
			AccountId: accounts[models.SystemAccountAccountsReceivable].ID,
			Debit:     financed,
			Memo:      "financed balance",
		})
	}
	if totals.Discount.IsPositive() {
		lines = append(lines, models.NewJournalLine{
			AccountId: accounts[models.SystemAccountSalesDiscounts].ID,
			Debit:     totals.Discount,
		})
	}
	lines = append(lines, models.NewJournalLine{
		AccountId: accounts[models.SystemAccountSalesRevenue].ID,
		Credit:    totals.Subtotal,
	})
	if totals.Tax.IsPositive() {
		lines = append(lines, models.NewJournalLine{
			AccountId: accounts[models.SystemAccountTaxPayable].ID,
			Credit:    totals.Tax,
		})
	}
	if totalCost.IsPositive() {
		lines = append(lines,
			models.NewJournalLine{
				AccountId: accounts[models.SystemAccountCOGS].ID,
				Debit:     totalCost,
			},
			models.NewJournalLine{
				AccountId: accounts[models.SystemAccountInventory].ID,
				Credit:    totalCost,
			})
	}
	return &models.NewJournal{
		PostingDate: sale.SaleDate,
		RefType:     models.JournalRefTypeSale,
		RefId:       sale.ID,
		Description: "Sale " + sale.InvoiceNumber,
		Lines:       lines,
	}
}
