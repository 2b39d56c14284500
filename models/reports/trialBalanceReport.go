package reports

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
)

type TrialBalanceRow struct {
	AccountId   int             `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	MainType    string          `json:"main_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type TrialBalanceReport struct {
	AsOf        time.Time          `json:"as_of"`
	Rows        []*TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Balanced    bool               `json:"balanced"`
}

// GetTrialBalanceReport nets each account's lines up to asOf and shows the
// result on the account's positive side. Balanced is the ledger health flag:
// false means posting integrity was broken somewhere.
func GetTrialBalanceReport(ctx context.Context, asOf time.Time) (*TrialBalanceReport, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	tx, err := beginReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Driven from accounts so active accounts with no postings still show a
	// zero row, and inactive accounts stay out.
	var rows []*TrialBalanceRow
	err = tx.Raw(`
		SELECT
			ac.id AS account_id,
			ac.code AS account_code,
			ac.name AS account_name,
			ac.main_type AS main_type,
			CASE
				WHEN COALESCE(SUM(posted.debit), 0) - COALESCE(SUM(posted.credit), 0) >= 0
					THEN COALESCE(SUM(posted.debit), 0) - COALESCE(SUM(posted.credit), 0)
				ELSE 0
			END AS debit,
			CASE
				WHEN COALESCE(SUM(posted.debit), 0) - COALESCE(SUM(posted.credit), 0) < 0
					THEN ABS(COALESCE(SUM(posted.debit), 0) - COALESCE(SUM(posted.credit), 0))
				ELSE 0
			END AS credit
		FROM accounts AS ac
		LEFT JOIN (
			SELECT jl.account_id, jl.debit, jl.credit
			FROM journal_lines AS jl
			JOIN journals AS j ON jl.journal_id = j.id
			WHERE j.business_id = ? AND j.posting_date <= ?
		) AS posted ON posted.account_id = ac.id
		WHERE
			ac.business_id = ?
			AND ac.is_active = 1
		GROUP BY ac.id, ac.code, ac.name, ac.main_type
		ORDER BY ac.code
	`, businessId, utils.EndOfDay(asOf), businessId).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.Debit)
		totalCredit = totalCredit.Add(row.Credit)
	}
	epsilon := config.GetOptions().ToleranceEpsilon
	return &TrialBalanceReport{
		AsOf:        asOf,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Balanced:    utils.WithinEpsilon(totalDebit, totalCredit, epsilon),
	}, nil
}
