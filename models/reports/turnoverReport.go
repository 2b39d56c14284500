package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type ABCClass string

const (
	ABCClassA ABCClass = "A"
	ABCClassB ABCClass = "B"
	ABCClassC ABCClass = "C"
)

type ABCItem struct {
	ItemId   int             `json:"item_id"`
	Sku      string          `json:"sku"`
	ItemName string          `json:"item_name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Class    ABCClass        `json:"class"`
}

type TurnoverReport struct {
	FromDate         time.Time       `json:"from_date"`
	ToDate           time.Time       `json:"to_date"`
	CostOfGoodsSold  decimal.Decimal `json:"cost_of_goods_sold"`
	AverageInventory decimal.Decimal `json:"average_inventory"`
	TurnoverRatio    decimal.Decimal `json:"turnover_ratio"`
	Items            []*ABCItem      `json:"items"`
}

// ClassifyABC assigns classes over items already sorted by revenue
// descending: the items covering the first 80% of revenue are A, the next
// 15% B, the tail C. Items with zero total revenue all land in C.
func ClassifyABC(items []*ABCItem) {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Revenue)
	}
	if !total.IsPositive() {
		for _, item := range items {
			item.Class = ABCClassC
		}
		return
	}

	aCut := total.Mul(decimal.New(80, -2))
	bCut := total.Mul(decimal.New(95, -2))
	cumulative := decimal.Zero
	for _, item := range items {
		cumulative = cumulative.Add(item.Revenue)
		switch {
		case cumulative.LessThanOrEqual(aCut):
			item.Class = ABCClassA
		case cumulative.LessThanOrEqual(bCut):
			item.Class = ABCClassB
		default:
			item.Class = ABCClassC
		}
	}
}

// GetTurnoverReport computes inventory turnover (cost of goods sold over the
// average of opening and closing inventory balance) and ABC classes by item
// revenue, voided sales excluded.
func GetTurnoverReport(ctx context.Context, fromDate, toDate time.Time) (*TurnoverReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var cogs decimal.Decimal
	err = tx.Raw(`
		SELECT COALESCE(SUM(jl.debit) - SUM(jl.credit), 0)
		FROM journal_lines AS jl
		JOIN journals AS j ON jl.journal_id = j.id
		JOIN accounts AS ac ON jl.account_id = ac.id
		WHERE
			j.business_id = ?
			AND j.posting_date >= ?
			AND j.posting_date <= ?
			AND ac.detail_type = 'CostOfGoodsSold'
	`, businessId, utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).Scan(&cogs).Error
	if err != nil {
		return nil, err
	}

	inventoryBalance := func(asOf time.Time) (decimal.Decimal, error) {
		var balance decimal.Decimal
		err := tx.Raw(`
			SELECT COALESCE(SUM(jl.debit) - SUM(jl.credit), 0)
			FROM journal_lines AS jl
			JOIN journals AS j ON jl.journal_id = j.id
			JOIN accounts AS ac ON jl.account_id = ac.id
			WHERE
				j.business_id = ?
				AND j.posting_date <= ?
				AND ac.detail_type = 'Stock'
		`, businessId, asOf).Scan(&balance).Error
		return balance, err
	}
	opening, err := inventoryBalance(utils.StartOfDay(fromDate).Add(-time.Second))
	if err != nil {
		return nil, err
	}
	closing, err := inventoryBalance(utils.EndOfDay(toDate))
	if err != nil {
		return nil, err
	}
	average := opening.Add(closing).Div(decimal.NewFromInt(2))

	var items []*ABCItem
	err = tx.Raw(`
		SELECT
			i.id AS item_id,
			i.sku,
			i.name AS item_name,
			COALESCE(SUM(sl.line_total), 0) AS revenue
		FROM sale_lines AS sl
		JOIN sales AS s ON sl.sale_id = s.id
		JOIN items AS i ON sl.item_id = i.id
		WHERE
			s.business_id = ?
			AND s.sale_date >= ?
			AND s.sale_date <= ?
			AND s.voided_at IS NULL
		GROUP BY i.id, i.sku, i.name
		ORDER BY revenue DESC
	`, businessId, utils.StartOfDay(fromDate), utils.EndOfDay(toDate)).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	ClassifyABC(items)

	report := &TurnoverReport{
		FromDate:         fromDate,
		ToDate:           toDate,
		CostOfGoodsSold:  cogs,
		AverageInventory: average,
		Items:            items,
	}
	if average.IsPositive() {
		report.TurnoverRatio = cogs.Div(average).Round(4)
	}
	return report, nil
}
