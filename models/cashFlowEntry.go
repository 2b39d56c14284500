package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CashFlowEntry mirrors each cash-like journal line, ordered by
// (entry_date, id). RunningTotal is the cash position after the entry.
type CashFlowEntry struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"index;not null;size:64" json:"business_id"`
	AccountId    int             `gorm:"not null;index:idx_cf_account_date,priority:1" json:"account_id"`
	JournalId    int             `gorm:"not null;index" json:"journal_id"`
	EntryDate    time.Time       `gorm:"not null;index:idx_cf_account_date,priority:2" json:"entry_date"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	RunningTotal decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"running_total"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (e *CashFlowEntry) BeforeDelete(tx *gorm.DB) error {
	return errors.New("cash flow entries cannot be deleted")
}

// appendCashFlowEntryTx inserts one entry and repairs the running totals of
// any later entries on the same account. A backdated journal therefore
// recomputes its successors in the same transaction that posts it.
func appendCashFlowEntryTx(tx *gorm.DB, ctx context.Context, businessId string, accountId int, journalId int, entryDate time.Time, amount decimal.Decimal) error {
	entryDate = utils.StartOfDay(entryDate)

	var prior CashFlowEntry
	priorTotal := decimal.Zero
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND account_id = ? AND entry_date <= ?",
			businessId, accountId, entryDate).
		Order("entry_date DESC, id DESC").
		First(&prior).Error
	if err == nil {
		priorTotal = prior.RunningTotal
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	entry := CashFlowEntry{
		BusinessId:   businessId,
		AccountId:    accountId,
		JournalId:    journalId,
		EntryDate:    entryDate,
		Amount:       amount,
		RunningTotal: priorTotal.Add(amount),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	var successors []*CashFlowEntry
	err = tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND account_id = ? AND entry_date > ?",
			businessId, accountId, entryDate).
		Order("entry_date, id").
		Find(&successors).Error
	if err != nil {
		return err
	}
	running := entry.RunningTotal
	for _, successor := range successors {
		running = running.Add(successor.Amount)
		if successor.RunningTotal.Equal(running) {
			continue
		}
		if err := tx.WithContext(ctx).Model(successor).
			Update("running_total", running).Error; err != nil {
			return err
		}
	}
	return nil
}

// RecomputeRunningTotals rewrites running totals over entries already sorted
// by (entry_date, id), starting from openingTotal. The rebuild command and
// tests share it.
func RecomputeRunningTotals(entries []*CashFlowEntry, openingTotal decimal.Decimal) {
	running := openingTotal
	for _, entry := range entries {
		running = running.Add(entry.Amount)
		entry.RunningTotal = running
	}
}

func ListCashFlowEntries(ctx context.Context, accountId int, from, to time.Time) ([]*CashFlowEntry, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var entries []*CashFlowEntry
	err := db.WithContext(ctx).
		Where("business_id = ? AND account_id = ? AND entry_date >= ? AND entry_date <= ?",
			businessId, accountId, utils.StartOfDay(from), utils.EndOfDay(to)).
		Order("entry_date, id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
