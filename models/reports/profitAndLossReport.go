package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type ProfitAndLossLine struct {
	AccountId   int             `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	DetailType  string          `json:"detail_type"`
	Amount      decimal.Decimal `json:"amount"`
}

type ProfitAndLossReport struct {
	FromDate      time.Time            `json:"from_date"`
	ToDate        time.Time            `json:"to_date"`
	RevenueLines  []*ProfitAndLossLine `json:"revenue_lines"`
	ExpenseLines  []*ProfitAndLossLine `json:"expense_lines"`
	GrossRevenue  decimal.Decimal      `json:"gross_revenue"`
	CostOfGoods   decimal.Decimal      `json:"cost_of_goods"`
	GrossProfit   decimal.Decimal      `json:"gross_profit"`
	TotalExpenses decimal.Decimal      `json:"total_expenses"`
	NetProfit     decimal.Decimal      `json:"net_profit"`
}

// GetProfitAndLossReport sums revenue and expense activity over the range.
// Revenue amounts are credit-normal (contra accounts come out negative),
// expense amounts debit-normal. Gross profit excludes cost of goods sold
// from the expense block.
func GetProfitAndLossReport(ctx context.Context, fromDate, toDate time.Time) (*ProfitAndLossReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	type plRow struct {
		AccountId   int
		AccountCode string
		AccountName string
		MainType    string
		DetailType  string
		Amount      decimal.Decimal
	}
	var rows []*plRow
	err = tx.Raw(`
		SELECT
			ac.id AS account_id,
			ac.code AS account_code,
			ac.name AS account_name,
			ac.main_type AS main_type,
			ac.detail_type AS detail_type,
			CASE
				WHEN ac.main_type = 'Revenue' THEN SUM(jl.credit) - SUM(jl.debit)
				ELSE SUM(jl.debit) - SUM(jl.credit)
			END AS amount
		FROM journal_lines AS jl
		JOIN journals AS j ON jl.journal_id = j.id
		JOIN accounts AS ac ON jl.account_id = ac.id
		WHERE
			j.business_id = ?
			AND j.posting_date >= ?
			AND j.posting_date <= ?
			AND ac.main_type IN ('Revenue', 'Expense')
		GROUP BY ac.id, ac.code, ac.name, ac.main_type, ac.detail_type
		ORDER BY ac.code
	`, businessId, utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &ProfitAndLossReport{FromDate: fromDate, ToDate: toDate}
	for _, row := range rows {
		line := ProfitAndLossLine{
			AccountId:   row.AccountId,
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			DetailType:  row.DetailType,
			Amount:      row.Amount,
		}
		switch row.MainType {
		case string(models.AccountMainTypeRevenue):
			report.RevenueLines = append(report.RevenueLines, &line)
			report.GrossRevenue = report.GrossRevenue.Add(line.Amount)
		default:
			report.ExpenseLines = append(report.ExpenseLines, &line)
			if row.DetailType == string(models.AccountDetailTypeCostOfGoodsSold) {
				report.CostOfGoods = report.CostOfGoods.Add(line.Amount)
			} else {
				report.TotalExpenses = report.TotalExpenses.Add(line.Amount)
			}
		}
	}
	report.GrossProfit = report.GrossRevenue.Sub(report.CostOfGoods)
	report.NetProfit = report.GrossProfit.Sub(report.TotalExpenses)
	return report, nil
}
