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

type Account struct {
	ID              int               `gorm:"primary_key" json:"id"`
	BusinessId      string            `gorm:"index;not null;uniqueIndex:uniq_account_code,priority:1;size:64" json:"business_id"`
	Code            string            `gorm:"size:20;not null;uniqueIndex:uniq_account_code,priority:2" json:"code"`
	Name            string            `gorm:"size:255;not null;index" json:"name"`
	MainType        AccountMainType   `gorm:"size:20;not null;index" json:"main_type"`
	DetailType      AccountDetailType `gorm:"size:30;not null;index" json:"detail_type"`
	NormalBalance   NormalBalance     `gorm:"size:10;not null" json:"normal_balance"`
	ParentAccountId int               `gorm:"index" json:"parent_account_id"`
	IsActive        *bool             `gorm:"not null;default:true" json:"is_active"`
	IsSystemDefault *bool             `gorm:"not null;default:false" json:"is_system_default"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewAccount struct {
	Code            string            `json:"code" validate:"required"`
	Name            string            `json:"name" validate:"required"`
	MainType        AccountMainType   `json:"main_type" validate:"required"`
	DetailType      AccountDetailType `json:"detail_type"`
	ParentAccountId int               `json:"parent_account_id"`
}

// Standard chart codes. The sale and payment workflows resolve posting
// accounts through these, so InitializeChart must run before the first sale.
const (
	SystemAccountCash               = "1000"
	SystemAccountBank               = "1010"
	SystemAccountAccountsReceivable = "1100"
	SystemAccountInventory          = "1200"
	SystemAccountAccountsPayable    = "2000"
	SystemAccountTaxPayable         = "2100"
	SystemAccountOwnersEquity       = "3000"
	SystemAccountSalesRevenue       = "4000"
	SystemAccountSalesDiscounts     = "4900"
	SystemAccountCOGS               = "5000"
	SystemAccountRentExpense        = "5100"
	SystemAccountSalariesExpense    = "5200"
	SystemAccountUtilitiesExpense   = "5300"
	SystemAccountOtherExpense       = "5900"
)

type systemAccountSpec struct {
	Code       string
	Name       string
	MainType   AccountMainType
	DetailType AccountDetailType
}

var standardChart = []systemAccountSpec{
	{SystemAccountCash, "Cash", AccountMainTypeAsset, AccountDetailTypeCash},
	{SystemAccountBank, "Bank", AccountMainTypeAsset, AccountDetailTypeBank},
	{SystemAccountAccountsReceivable, "Accounts Receivable", AccountMainTypeAsset, AccountDetailTypeAccountsReceivable},
	{SystemAccountInventory, "Inventory", AccountMainTypeAsset, AccountDetailTypeStock},
	{SystemAccountAccountsPayable, "Accounts Payable", AccountMainTypeLiability, AccountDetailTypeAccountsPayable},
	{SystemAccountTaxPayable, "Tax Payable", AccountMainTypeLiability, AccountDetailTypeTaxPayable},
	{SystemAccountOwnersEquity, "Owner's Equity", AccountMainTypeEquity, AccountDetailTypeEquity},
	{SystemAccountSalesRevenue, "Sales Revenue", AccountMainTypeRevenue, AccountDetailTypeRevenue},
	{SystemAccountSalesDiscounts, "Sales Discounts", AccountMainTypeRevenue, AccountDetailTypeContraRevenue},
	{SystemAccountCOGS, "Cost of Goods Sold", AccountMainTypeExpense, AccountDetailTypeCostOfGoodsSold},
	{SystemAccountRentExpense, "Rent Expense", AccountMainTypeExpense, AccountDetailTypeExpense},
	{SystemAccountSalariesExpense, "Salaries Expense", AccountMainTypeExpense, AccountDetailTypeExpense},
	{SystemAccountUtilitiesExpense, "Utilities Expense", AccountMainTypeExpense, AccountDetailTypeExpense},
	{SystemAccountOtherExpense, "Other Expenses", AccountMainTypeExpense, AccountDetailTypeExpense},
}

// initializeChartTx idempotently inserts the standard code plan: re-running
// leaves exactly one row per standard code.
func initializeChartTx(tx *gorm.DB, ctx context.Context, businessId string) error {
	for _, spec := range standardChart {
		account := Account{
			BusinessId:      businessId,
			Code:            spec.Code,
			Name:            spec.Name,
			MainType:        spec.MainType,
			DetailType:      spec.DetailType,
			NormalBalance:   spec.MainType.NormalBalance(),
			IsActive:        newTrue(),
			IsSystemDefault: newTrue(),
		}
		result := tx.WithContext(ctx).
			Where("business_id = ? AND code = ?", businessId, spec.Code).
			FirstOrCreate(&account)
		if result.Error != nil {
			return result.Error
		}
	}
	// Invalidate the cached system account map.
	return config.RemoveRedisKey("systemAccounts:" + businessId)
}

func InitializeChart(ctx context.Context) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return errors.New("business id is required")
	}
	db := config.GetDB()
	tx := db.Begin()
	if err := initializeChartTx(tx, ctx, businessId); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func defaultDetailType(mainType AccountMainType) AccountDetailType {
	switch mainType {
	case AccountMainTypeAsset:
		return AccountDetailTypeOtherAsset
	case AccountMainTypeLiability:
		return AccountDetailTypeOtherLiability
	case AccountMainTypeEquity:
		return AccountDetailTypeEquity
	case AccountMainTypeRevenue:
		return AccountDetailTypeRevenue
	default:
		return AccountDetailTypeExpense
	}
}

func (input *NewAccount) validate(ctx context.Context, businessId string, id int) error {
	if err := utils.ValidateInput(input); err != nil {
		return err
	}
	if !input.MainType.Valid() {
		return utils.NewValidationError("main_type", "invalid account type")
	}
	if err := utils.ValidateUnique[Account](ctx, businessId, "code", input.Code, id); err != nil {
		return err
	}
	if input.ParentAccountId > 0 {
		if id > 0 && id == input.ParentAccountId {
			return utils.NewValidationError("parent_account_id", "self-parent not allowed")
		}
		if err := utils.ValidateResourceId[Account](ctx, businessId, input.ParentAccountId); err != nil {
			return utils.NewValidationError("parent_account_id", "parent not found")
		}
	}
	return nil
}

func CreateAccount(ctx context.Context, input *NewAccount) (*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}
	if input.DetailType == "" {
		input.DetailType = defaultDetailType(input.MainType)
	}

	account := Account{
		BusinessId:      businessId,
		Code:            input.Code,
		Name:            input.Name,
		MainType:        input.MainType,
		DetailType:      input.DetailType,
		NormalBalance:   input.MainType.NormalBalance(),
		ParentAccountId: input.ParentAccountId,
		IsActive:        newTrue(),
		IsSystemDefault: newFalse(),
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

func DeactivateAccount(ctx context.Context, id int) (*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	account, err := utils.FetchModel[Account](ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if account.IsSystemDefault != nil && *account.IsSystemDefault {
		return nil, utils.NewValidationError("id", "system accounts cannot be deactivated")
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(account).Update("IsActive", false).Error; err != nil {
		return nil, err
	}
	if err := config.RemoveRedisKey("systemAccounts:" + businessId); err != nil {
		return nil, err
	}
	return account, nil
}

// GetSystemAccounts returns the code -> account map for posting, redis or db.
func GetSystemAccounts(ctx context.Context, businessId string) (map[string]*Account, error) {
	accounts := make(map[string]*Account)
	redisKey := "systemAccounts:" + businessId
	exists, err := config.GetRedisObject(redisKey, &accounts)
	if err != nil {
		return nil, err
	}
	if !exists {
		db := config.GetDB()
		var rows []*Account
		if err := db.WithContext(ctx).
			Where("business_id = ? AND is_system_default = ?", businessId, true).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, account := range rows {
			accounts[account.Code] = account
		}
		if err := config.SetRedisObject(redisKey, &accounts, 0); err != nil {
			return nil, err
		}
	}
	if len(accounts) == 0 {
		return nil, errors.New("chart of accounts is not initialized")
	}
	return accounts, nil
}

func ListAccounts(ctx context.Context) ([]*Account, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var accounts []*Account
	if err := db.WithContext(ctx).Where("business_id = ?", businessId).
		Order("code").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// AccountBalance computes the signed balance toward the account's normal side
// over all journal lines dated <= asOf.
func AccountBalance(ctx context.Context, accountId int, asOf time.Time) (decimal.Decimal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return decimal.Zero, errors.New("business id is required")
	}
	account, err := utils.FetchModel[Account](ctx, businessId, accountId)
	if err != nil {
		return decimal.Zero, err
	}

	db := config.GetDB()
	type sums struct {
		Debits  decimal.Decimal
		Credits decimal.Decimal
	}
	var s sums
	err = db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(jl.debit), 0) AS debits,
			COALESCE(SUM(jl.credit), 0) AS credits
		FROM journal_lines jl
		JOIN journals j ON jl.journal_id = j.id
		WHERE j.business_id = ?
			AND jl.account_id = ?
			AND j.posting_date <= ?
	`, businessId, accountId, utils.EndOfDay(asOf)).Scan(&s).Error
	if err != nil {
		return decimal.Zero, err
	}

	if account.NormalBalance == NormalBalanceDebit {
		return s.Debits.Sub(s.Credits), nil
	}
	return s.Credits.Sub(s.Debits), nil
}
