package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"gorm.io/gorm"
)

// BuildReversalLines mirrors a journal's lines with debit and credit swapped.
func BuildReversalLines(lines []models.JournalLine) []models.NewJournalLine {
	reversed := make([]models.NewJournalLine, 0, len(lines))
	for _, line := range lines {
		reversed = append(reversed, models.NewJournalLine{
			AccountId: line.AccountId,
			Debit:     line.Credit,
			Credit:    line.Debit,
			Memo:      line.Memo,
		})
	}
	return reversed
}

// reverseJournalTx posts the mirror journal and links both directions.
// Posted journals never change, so a second reversal attempt fails here.
func reverseJournalTx(tx *gorm.DB, ctx context.Context, businessId string, original *models.Journal, refType models.JournalRefType, refId int, description string, postingDate time.Time) (*models.Journal, error) {
	if original.ReversedByJournalId != nil {
		return nil, utils.NewInvariantViolation("single reversal",
			"journal "+original.JournalNumber+" is already reversed")
	}
	if original.ReversalOfJournalId != nil {
		return nil, utils.NewInvariantViolation("single reversal",
			"reversal journals cannot be reversed")
	}

	reversal, err := models.PostJournalTx(tx, ctx, businessId, &models.NewJournal{
		PostingDate:         postingDate,
		RefType:             refType,
		RefId:               refId,
		Description:         description,
		ReversalOfJournalId: &original.ID,
		Lines:               BuildReversalLines(original.Lines),
	})
	if err != nil {
		return nil, err
	}

	err = tx.WithContext(ctx).Model(&models.Journal{}).
		Where("id = ? AND business_id = ?", original.ID, businessId).
		Update("reversed_by_journal_id", reversal.ID).Error
	if err != nil {
		return nil, err
	}
	return reversal, nil
}

// ReverseJournal posts the correcting mirror of a manual journal. Documents
// with their own void flows (sales) go through those instead.
func ReverseJournal(ctx context.Context, journalId int, description string) (*models.Journal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var reversal *models.Journal
	err := runPostingTransaction(ctx, businessId, func(tx *gorm.DB) error {
		original, err := utils.FetchModelForUpdate[models.Journal](tx, ctx, businessId, journalId, "Lines")
		if err != nil {
			return err
		}
		if description == "" {
			description = "Reversal of " + original.JournalNumber
		}
		reversal, err = reverseJournalTx(tx, ctx, businessId, original,
			models.JournalRefTypeManual, original.ID, description, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	return reversal, nil
}
