package reports

import (
	"context"
	"errors"

	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type InventoryLocationRow struct {
	ItemId       int             `json:"item_id"`
	Sku          string          `json:"sku"`
	ItemName     string          `json:"item_name"`
	LocationId   int             `json:"location_id"`
	LocationName string          `json:"location_name"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
}

type InventoryValuationRow struct {
	ItemId      int             `json:"item_id"`
	Sku         string          `json:"sku"`
	ItemName    string          `json:"item_name"`
	OnHand      decimal.Decimal `json:"on_hand"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
}

type InventorySummaryReport struct {
	ByLocation       []*InventoryLocationRow  `json:"by_location"`
	Valuation        []*InventoryValuationRow `json:"valuation"`
	TotalCostValue   decimal.Decimal          `json:"total_cost_value"`
	TotalRetailValue decimal.Decimal          `json:"total_retail_value"`
}

// GetInventorySummaryReport lists on-hand per (item, location) and values
// total stock at cost and at retail.
func GetInventorySummaryReport(ctx context.Context) (*InventorySummaryReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var byLocation []*InventoryLocationRow
	err = tx.Raw(`
		SELECT
			i.id AS item_id,
			i.sku,
			i.name AS item_name,
			l.id AS location_id,
			l.name AS location_name,
			ls.on_hand,
			ls.reserved
		FROM location_stocks AS ls
		JOIN items AS i ON ls.item_id = i.id
		JOIN locations AS l ON ls.location_id = l.id
		WHERE ls.business_id = ?
		ORDER BY i.name, l.name
	`, businessId).Scan(&byLocation).Error
	if err != nil {
		return nil, err
	}

	var valuation []*InventoryValuationRow
	err = tx.Raw(`
		SELECT
			i.id AS item_id,
			i.sku,
			i.name AS item_name,
			COALESCE(SUM(ls.on_hand), 0) AS on_hand,
			COALESCE(SUM(ls.on_hand), 0) * i.cost_price AS cost_value,
			COALESCE(SUM(ls.on_hand), 0) * i.retail_price AS retail_value
		FROM items AS i
		LEFT JOIN location_stocks AS ls ON ls.item_id = i.id AND ls.business_id = i.business_id
		WHERE i.business_id = ? AND i.is_active = 1
		GROUP BY i.id, i.sku, i.name, i.cost_price, i.retail_price
		ORDER BY i.name
	`, businessId).Scan(&valuation).Error
	if err != nil {
		return nil, err
	}

	report := &InventorySummaryReport{ByLocation: byLocation, Valuation: valuation}
	for _, row := range valuation {
		report.TotalCostValue = report.TotalCostValue.Add(row.CostValue)
		report.TotalRetailValue = report.TotalRetailValue.Add(row.RetailValue)
	}
	return report, nil
}
