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
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rewrites cash flow running totals from the entries themselves, per cash
// account. Use after repairing ledger data by hand.
func main() {
	businessID := flag.String("business-id", "", "Required: business id (uuid)")
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

	var accountIds []int
	err := db.Raw(`
		SELECT DISTINCT account_id
		FROM cash_flow_entries
		WHERE business_id = ?
	`, *businessID).Scan(&accountIds).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "account scan failed: %v\n", err)
		os.Exit(1)
	}

	totalFixed := 0
	for _, accountId := range accountIds {
		err := db.Transaction(func(tx *gorm.DB) error {
			var entries []*models.CashFlowEntry
			err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("business_id = ? AND account_id = ?", *businessID, accountId).
				Order("entry_date, id").
				Find(&entries).Error
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return nil
			}

			expected := make([]*models.CashFlowEntry, len(entries))
			for i, entry := range entries {
				clone := *entry
				expected[i] = &clone
			}
			models.RecomputeRunningTotals(expected, entries[0].RunningTotal.Sub(entries[0].Amount))

			for i, entry := range entries {
				if entry.RunningTotal.Equal(expected[i].RunningTotal) {
					continue
				}
				totalFixed++
				logger.WithFields(logrus.Fields{
					"account_id": accountId,
					"entry_id":   entry.ID,
					"stored":     entry.RunningTotal,
					"computed":   expected[i].RunningTotal,
				}).Warn("running total drift")
				if *dryRun {
					continue
				}
				err := tx.WithContext(ctx).Model(entry).
					Update("running_total", expected[i].RunningTotal).Error
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "backfill failed for account %d: %v\n", accountId, err)
			os.Exit(1)
		}
	}

	fmt.Printf("checked %d accounts, %d entries drifted (dry-run=%v)\n",
		len(accountIds), totalFixed, *dryRun)
}
