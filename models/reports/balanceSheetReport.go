package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type BalanceSheetLine struct {
	AccountId   int             `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	MainType    string          `json:"main_type"`
	DetailType  string          `json:"detail_type"`
	Amount      decimal.Decimal `json:"amount"`
}

type BalanceSheetReport struct {
	AsOf             time.Time           `json:"as_of"`
	Assets           []*BalanceSheetLine `json:"assets"`
	Liabilities      []*BalanceSheetLine `json:"liabilities"`
	Equity           []*BalanceSheetLine `json:"equity"`
	TotalAssets      decimal.Decimal     `json:"total_assets"`
	TotalLiabilities decimal.Decimal     `json:"total_liabilities"`
	TotalEquity      decimal.Decimal     `json:"total_equity"`
	RetainedEarnings decimal.Decimal     `json:"retained_earnings"`
	Balanced         bool                `json:"balanced"`

	// Inventory account balance vs the warehouse quantities valued at cost.
	InventoryAccountBalance decimal.Decimal `json:"inventory_account_balance"`
	InventoryStockValue     decimal.Decimal `json:"inventory_stock_value"`
	InventoryDiscrepancy    decimal.Decimal `json:"inventory_discrepancy"`
}

// GetBalanceSheetReport states financial position as of a date. Revenue and
// expense activity folds into equity as retained earnings, so assets equal
// liabilities plus equity within the configured tolerance on a healthy
// ledger. The inventory cross-check surfaces drift between the ledger's
// inventory account and physical stock valued at cost, without hiding it.
func GetBalanceSheetReport(ctx context.Context, asOf time.Time) (*BalanceSheetReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var rows []*BalanceSheetLine
	err = tx.Raw(`
		SELECT
			ac.id AS account_id,
			ac.code AS account_code,
			ac.name AS account_name,
			ac.main_type AS main_type,
			ac.detail_type AS detail_type,
			CASE
				WHEN ac.main_type = 'Asset' THEN SUM(jl.debit) - SUM(jl.credit)
				ELSE SUM(jl.credit) - SUM(jl.debit)
			END AS amount
		FROM journal_lines AS jl
		JOIN journals AS j ON jl.journal_id = j.id
		JOIN accounts AS ac ON jl.account_id = ac.id
		WHERE
			j.business_id = ?
			AND j.posting_date <= ?
			AND ac.main_type IN ('Asset', 'Liability', 'Equity')
		GROUP BY ac.id, ac.code, ac.name, ac.main_type, ac.detail_type
		ORDER BY ac.code
	`, businessId, utils.EndOfDay(asOf)).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &BalanceSheetReport{AsOf: asOf}
	for _, line := range rows {
		switch line.MainType {
		case "Asset":
			report.Assets = append(report.Assets, line)
			report.TotalAssets = report.TotalAssets.Add(line.Amount)
		case "Liability":
			report.Liabilities = append(report.Liabilities, line)
			report.TotalLiabilities = report.TotalLiabilities.Add(line.Amount)
		default:
			report.Equity = append(report.Equity, line)
			report.TotalEquity = report.TotalEquity.Add(line.Amount)
		}
		if line.DetailType == "Stock" {
			report.InventoryAccountBalance = report.InventoryAccountBalance.Add(line.Amount)
		}
	}

	// Retained earnings: net credit-over-debit of all P&L activity to date.
	var retained decimal.Decimal
	err = tx.Raw(`
		SELECT COALESCE(SUM(jl.credit) - SUM(jl.debit), 0)
		FROM journal_lines AS jl
		JOIN journals AS j ON jl.journal_id = j.id
		JOIN accounts AS ac ON jl.account_id = ac.id
		WHERE
			j.business_id = ?
			AND j.posting_date <= ?
			AND ac.main_type IN ('Revenue', 'Expense')
	`, businessId, utils.EndOfDay(asOf)).Scan(&retained).Error
	if err != nil {
		return nil, err
	}
	report.RetainedEarnings = retained
	report.TotalEquity = report.TotalEquity.Add(retained)

	var stockValue decimal.Decimal
	err = tx.Raw(`
		SELECT COALESCE(SUM(ls.on_hand * i.cost_price), 0)
		FROM location_stocks AS ls
		JOIN items AS i ON ls.item_id = i.id
		WHERE ls.business_id = ?
	`, businessId).Scan(&stockValue).Error
	if err != nil {
		return nil, err
	}
	report.InventoryStockValue = stockValue
	report.InventoryDiscrepancy = report.InventoryAccountBalance.Sub(stockValue)

	epsilon := config.GetOptions().ToleranceEpsilon
	report.Balanced = utils.WithinEpsilon(report.TotalAssets,
		report.TotalLiabilities.Add(report.TotalEquity), epsilon)
	return report, nil
}
