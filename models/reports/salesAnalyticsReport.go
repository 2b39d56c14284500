package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type TopItemRow struct {
	ItemId   int             `json:"item_id"`
	Sku      string          `json:"sku"`
	ItemName string          `json:"item_name"`
	QtySold  int             `json:"qty_sold"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type SlowMoverRow struct {
	ItemId       int             `json:"item_id"`
	Sku          string          `json:"sku"`
	ItemName     string          `json:"item_name"`
	OnHand       decimal.Decimal `json:"on_hand"`
	LastSoldDate *time.Time      `json:"last_sold_date"`
}

type CustomerValueRow struct {
	CustomerId   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	SaleCount    int             `json:"sale_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
	LastSaleDate time.Time       `json:"last_sale_date"`
}

type SalesAnalyticsReport struct {
	FromDate   time.Time           `json:"from_date"`
	ToDate     time.Time           `json:"to_date"`
	TopItems   []*TopItemRow       `json:"top_items"`
	SlowMovers []*SlowMoverRow     `json:"slow_movers"`
	Customers  []*CustomerValueRow `json:"customers"`
}

// GetSalesAnalyticsReport: best sellers by revenue, items holding stock with
// no sale in the range, and lifetime value per customer. Voided sales are
// excluded throughout.
func GetSalesAnalyticsReport(ctx context.Context, fromDate, toDate time.Time, limit int) (*SalesAnalyticsReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = 10
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	from := utils.StartOfDay(fromDate)
	to := utils.EndOfDay(toDate)

	var topItems []*TopItemRow
	err = tx.Raw(`
		SELECT
			i.id AS item_id,
			i.sku,
			i.name AS item_name,
			COALESCE(SUM(sl.qty), 0) AS qty_sold,
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
		LIMIT ?
	`, businessId, from, to, limit).Scan(&topItems).Error
	if err != nil {
		return nil, err
	}

	var slowMovers []*SlowMoverRow
	err = tx.Raw(`
		SELECT
			i.id AS item_id,
			i.sku,
			i.name AS item_name,
			COALESCE(SUM(ls.on_hand), 0) AS on_hand,
			(
				SELECT MAX(s.sale_date)
				FROM sale_lines sl
				JOIN sales s ON sl.sale_id = s.id
				WHERE sl.item_id = i.id AND s.voided_at IS NULL
			) AS last_sold_date
		FROM items AS i
		LEFT JOIN location_stocks AS ls ON ls.item_id = i.id AND ls.business_id = i.business_id
		WHERE
			i.business_id = ?
			AND i.is_active = 1
			AND i.id NOT IN (
				SELECT sl.item_id
				FROM sale_lines sl
				JOIN sales s ON sl.sale_id = s.id
				WHERE
					s.business_id = ?
					AND s.sale_date >= ?
					AND s.sale_date <= ?
					AND s.voided_at IS NULL
			)
		GROUP BY i.id, i.sku, i.name
		HAVING COALESCE(SUM(ls.on_hand), 0) > 0
		ORDER BY i.name
	`, businessId, businessId, from, to).Scan(&slowMovers).Error
	if err != nil {
		return nil, err
	}

	var customers []*CustomerValueRow
	err = tx.Raw(`
		SELECT
			c.id AS customer_id,
			c.name AS customer_name,
			COUNT(s.id) AS sale_count,
			COALESCE(SUM(s.total_amount), 0) AS total_spent,
			MAX(s.sale_date) AS last_sale_date
		FROM customers AS c
		JOIN sales AS s ON s.customer_id = c.id
		WHERE
			c.business_id = ?
			AND s.voided_at IS NULL
		GROUP BY c.id, c.name
		ORDER BY total_spent DESC
		LIMIT ?
	`, businessId, limit).Scan(&customers).Error
	if err != nil {
		return nil, err
	}

	return &SalesAnalyticsReport{
		FromDate:   fromDate,
		ToDate:     toDate,
		TopItems:   topItems,
		SlowMovers: slowMovers,
		Customers:  customers,
	}, nil
}
