package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Recomputes on-hand from the movement ledger per (item, location) and
// repairs drifted quantity rows. The ledger is the source of truth; quantity
// rows are a cache of it.
func main() {
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
	itemID := flag.Int("item-id", 0, "Optional: restrict to one item")
	dryRun := flag.Bool("dry-run", true, "Report drift only (no writes)")
	flag.Parse()

	if strings.TrimSpace(*businessID) == "" {
		fmt.Fprintln(os.Stderr, "--business-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	ctx := utils.SetBusinessIdInContext(context.Background(), *businessID)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)

	type key struct {
		ItemId     int
		LocationId int
		LedgerSum  decimal.Decimal
	}
	var keys []key
	query := `
		SELECT item_id, location_id, COALESCE(SUM(delta), 0) AS ledger_sum
		FROM stock_movements
		WHERE business_id = ?
	`
	args := []interface{}{*businessID}
	if *itemID > 0 {
		query += " AND item_id = ?"
		args = append(args, *itemID)
	}
	query += " GROUP BY item_id, location_id"
	if err := db.Raw(query, args...).Scan(&keys).Error; err != nil {
		fmt.Fprintf(os.Stderr, "ledger scan failed: %v\n", err)
		os.Exit(1)
	}

	drifted := 0
	for _, k := range keys {
		err := db.Transaction(func(tx *gorm.DB) error {
			var stock models.LocationStock
			err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("business_id = ? AND item_id = ? AND location_id = ?",
					*businessID, k.ItemId, k.LocationId).
				First(&stock).Error
			if err == gorm.ErrRecordNotFound {
				stock = models.LocationStock{
					BusinessId: *businessID,
					ItemId:     k.ItemId,
					LocationId: k.LocationId,
				}
			} else if err != nil {
				return err
			}

			if stock.OnHand.Equal(k.LedgerSum) {
				return nil
			}
			drifted++
			logger.WithFields(logrus.Fields{
				"item_id":     k.ItemId,
				"location_id": k.LocationId,
				"on_hand":     stock.OnHand,
				"ledger_sum":  k.LedgerSum,
			}).Warn("on-hand drift")

			if *dryRun {
				return nil
			}
			if stock.ID == 0 {
				stock.OnHand = k.LedgerSum
				return tx.WithContext(ctx).Create(&stock).Error
			}
			return tx.WithContext(ctx).Model(&stock).
				Update("on_hand", k.LedgerSum).Error
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "rebuild failed for item %d location %d: %v\n",
				k.ItemId, k.LocationId, err)
			os.Exit(1)
		}
	}

	fmt.Printf("checked %d keys, %d drifted (dry-run=%v)\n", len(keys), drifted, *dryRun)
}
