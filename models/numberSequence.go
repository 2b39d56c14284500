package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequence is the per-tenant counter row behind invoice, journal and
// transfer numbers. Reading it FOR UPDATE serializes number assignment, so
// observing N+1 implies N is committed.
type NumberSequence struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null;uniqueIndex:uniq_seq_scope,priority:1;size:64" json:"business_id"`
	Scope      string    `gorm:"not null;uniqueIndex:uniq_seq_scope,priority:2;size:32" json:"scope"`
	NextValue  int64     `gorm:"not null;default:1" json:"next_value"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const (
	SequenceScopeInvoice  = "invoice"
	SequenceScopeJournal  = "journal"
	SequenceScopeTransfer = "transfer"
)

var sequencePrefixes = map[string]string{
	SequenceScopeInvoice:  "INV-",
	SequenceScopeJournal:  "JRN-",
	SequenceScopeTransfer: "TRF-",
}

// NextSequence allocates the next number for (business, scope) inside the
// caller's transaction. The row lock is held until that transaction ends.
func NextSequence(tx *gorm.DB, ctx context.Context, businessId string, scope string) (int64, error) {
	var seq NumberSequence
	err := tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND scope = ?", businessId, scope).
		First(&seq).Error
	if err == gorm.ErrRecordNotFound {
		seq = NumberSequence{BusinessId: businessId, Scope: scope, NextValue: 1}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	value := seq.NextValue
	if err := tx.WithContext(ctx).Model(&NumberSequence{}).
		Where("id = ?", seq.ID).
		Update("next_value", gorm.Expr("next_value + 1")).Error; err != nil {
		return 0, err
	}
	return value, nil
}

// FormatSequence renders "INV-000042" style document numbers.
func FormatSequence(scope string, value int64) string {
	prefix := sequencePrefixes[scope]
	return fmt.Sprintf("%s%06d", prefix, value)
}
