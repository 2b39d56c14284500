package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/mmdatafocus/shopledger_backend/workflow"
	"github.com/sirupsen/logrus"
)

// Flags pending installments that have passed their due date, for every
// active business. A redis lock keeps concurrent scheduled runs from
// overlapping; a run that cannot take the lock exits cleanly.
func main() {
	asOfStr := flag.String("as-of", "", "Optional: scan date (YYYY-MM-DD), defaults to today")
	flag.Parse()

	asOf := time.Now().UTC()
	if *asOfStr != "" {
		parsed, err := time.Parse("2006-01-02", *asOfStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid as-of date: %v\n", err)
			os.Exit(1)
		}
		asOf = parsed
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	logger := logrus.New()

	ctx := context.Background()
	locker := config.GetRedisLock()
	if locker != nil {
		lock, err := locker.Obtain(ctx, "shopledger:overdue-scan", 10*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			logger.Info("another overdue scan is running, exiting")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "lock error: %v\n", err)
			os.Exit(1)
		}
		defer lock.Release(ctx)
	}

	db := config.GetDB()
	adminCtx := utils.SetSkipTenantScopeInContext(ctx, true)
	var businesses []*models.Business
	err := db.WithContext(adminCtx).Where("is_active = ?", true).Find(&businesses).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "business scan failed: %v\n", err)
		os.Exit(1)
	}

	totalFlagged := 0
	for _, business := range businesses {
		bizCtx := utils.SetBusinessIdInContext(ctx, business.ID)
		flagged, err := workflow.MarkOverduePayments(bizCtx, asOf)
		if err != nil {
			logger.WithField("business_id", business.ID).
				WithError(err).Error("overdue scan failed")
			continue
		}
		totalFlagged += flagged
	}
	fmt.Printf("scanned %d businesses, flagged %d payments\n", len(businesses), totalFlagged)
}
