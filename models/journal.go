package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Journal is posted once and never edited. Corrections go through reversal
// journals linked via ReversalOfJournalId / ReversedByJournalId.
type Journal struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"index;not null;uniqueIndex:uniq_journal_number,priority:1;size:64" json:"business_id"`
	JournalNumber       string          `gorm:"size:30;not null;uniqueIndex:uniq_journal_number,priority:2" json:"journal_number"`
	PostingDate         time.Time       `gorm:"not null;index" json:"posting_date"`
	RefType             JournalRefType  `gorm:"size:30;not null;index:idx_journal_ref,priority:1" json:"ref_type"`
	RefId               int             `gorm:"index:idx_journal_ref,priority:2" json:"ref_id"`
	Description         string          `gorm:"size:255" json:"description"`
	TotalDebit          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_debit"`
	TotalCredit         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_credit"`
	ReversalOfJournalId *int            `gorm:"index" json:"reversal_of_journal_id"`
	ReversedByJournalId *int            `gorm:"index" json:"reversed_by_journal_id"`
	Lines               []JournalLine   `gorm:"foreignKey:JournalId" json:"lines"`
	CreatedBy           int             `gorm:"index" json:"created_by"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type JournalLine struct {
	ID         int             `gorm:"primary_key" json:"id"`
	JournalId  int             `gorm:"not null;index" json:"journal_id"`
	BusinessId string          `gorm:"index;not null;size:64" json:"business_id"`
	AccountId  int             `gorm:"not null;index" json:"account_id"`
	Debit      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"debit"`
	Credit     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"credit"`
	Memo       string          `gorm:"size:255" json:"memo"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Only the reversal back-link may change after posting.
func (j *Journal) BeforeUpdate(tx *gorm.DB) error {
	if tx.Statement.Changed("BusinessId", "JournalNumber", "PostingDate", "RefType",
		"RefId", "Description", "TotalDebit", "TotalCredit", "ReversalOfJournalId") {
		return errors.New("posted journals are immutable")
	}
	return nil
}

func (j *Journal) BeforeDelete(tx *gorm.DB) error {
	return errors.New("posted journals cannot be deleted")
}

func (l *JournalLine) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("journal lines are immutable")
}

func (l *JournalLine) BeforeDelete(tx *gorm.DB) error {
	return errors.New("journal lines cannot be deleted")
}

type NewJournalLine struct {
	AccountId int             `json:"account_id" validate:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

type NewJournal struct {
	PostingDate         time.Time        `json:"posting_date" validate:"required"`
	RefType             JournalRefType   `json:"ref_type" validate:"required"`
	RefId               int              `json:"ref_id"`
	Description         string           `json:"description"`
	ReversalOfJournalId *int             `json:"reversal_of_journal_id"`
	Lines               []NewJournalLine `json:"lines" validate:"required,min=2,dive"`
}

func (input *NewJournal) validate() error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range input.Lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return utils.NewValidationError("lines", "debit and credit must not be negative")
		}
		onDebit := line.Debit.IsPositive()
		onCredit := line.Credit.IsPositive()
		if onDebit == onCredit {
			return utils.NewValidationError("lines", "each line must carry exactly one side")
		}
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}
	epsilon := config.GetOptions().ToleranceEpsilon
	if !utils.WithinEpsilon(totalDebit, totalCredit, epsilon) {
		return utils.ErrUnbalancedJournal
	}
	return nil
}

// PostJournalTx validates and writes the journal, its lines and any cash flow
// entries inside the caller's transaction. Workflows compose it with their
// own document writes so the journal and the document commit together.
func PostJournalTx(tx *gorm.DB, ctx context.Context, businessId string, input *NewJournal) (*Journal, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	accountIds := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		accountIds = append(accountIds, line.AccountId)
	}
	accountIds = utils.UniqueSlice(accountIds)

	var accounts []*Account
	if err := tx.WithContext(ctx).
		Where("business_id = ? AND id IN ?", businessId, accountIds).
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	accountsById := make(map[int]*Account, len(accounts))
	for _, account := range accounts {
		accountsById[account.ID] = account
	}
	for _, id := range accountIds {
		account, ok := accountsById[id]
		if !ok {
			return nil, utils.NewValidationError("lines", "account not found")
		}
		if account.IsActive == nil || !*account.IsActive {
			return nil, utils.ErrAccountInactive
		}
	}

	seq, err := NextSequence(tx, ctx, businessId, SequenceScopeJournal)
	if err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	lines := make([]JournalLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
		lines = append(lines, JournalLine{
			BusinessId: businessId,
			AccountId:  line.AccountId,
			Debit:      line.Debit,
			Credit:     line.Credit,
			Memo:       line.Memo,
		})
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	journal := Journal{
		BusinessId:          businessId,
		JournalNumber:       FormatSequence(SequenceScopeJournal, seq),
		PostingDate:         input.PostingDate,
		RefType:             input.RefType,
		RefId:               input.RefId,
		Description:         input.Description,
		TotalDebit:          totalDebit,
		TotalCredit:         totalCredit,
		ReversalOfJournalId: input.ReversalOfJournalId,
		Lines:               lines,
		CreatedBy:           userId,
	}
	if err := tx.WithContext(ctx).Create(&journal).Error; err != nil {
		return nil, err
	}

	// Debits increase cash-like accounts, credits decrease them.
	for _, line := range journal.Lines {
		account := accountsById[line.AccountId]
		if !account.DetailType.IsCashLike() {
			continue
		}
		amount := line.Debit.Sub(line.Credit)
		if err := appendCashFlowEntryTx(tx, ctx, businessId, account.ID,
			journal.ID, journal.PostingDate, amount); err != nil {
			return nil, err
		}
	}

	config.MetricJournalsPosted.Inc()
	return &journal, nil
}

// PostJournal posts a manual journal in its own transaction.
func PostJournal(ctx context.Context, input *NewJournal) (*Journal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if input.RefType == "" {
		input.RefType = JournalRefTypeManual
	}

	db := config.GetDB()
	tx := db.Begin()
	journal, err := PostJournalTx(tx, ctx, businessId, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return journal, nil
}

func GetJournal(ctx context.Context, id int) (*Journal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Journal](ctx, businessId, id, "Lines")
}

func ListJournals(ctx context.Context, from, to time.Time) ([]*Journal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var journals []*Journal
	err := db.WithContext(ctx).Preload("Lines").
		Where("business_id = ? AND posting_date >= ? AND posting_date <= ?",
			businessId, utils.StartOfDay(from), utils.EndOfDay(to)).
		Order("posting_date, id").
		Find(&journals).Error
	if err != nil {
		return nil, err
	}
	return journals, nil
}
