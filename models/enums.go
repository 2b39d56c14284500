package models

type AccountMainType string

const (
	AccountMainTypeAsset     AccountMainType = "Asset"
	AccountMainTypeLiability AccountMainType = "Liability"
	AccountMainTypeEquity    AccountMainType = "Equity"
	AccountMainTypeRevenue   AccountMainType = "Revenue"
	AccountMainTypeExpense   AccountMainType = "Expense"
)

func (t AccountMainType) Valid() bool {
	switch t {
	case AccountMainTypeAsset, AccountMainTypeLiability, AccountMainTypeEquity,
		AccountMainTypeRevenue, AccountMainTypeExpense:
		return true
	}
	return false
}

// NormalBalance is the side on which the account type carries a positive balance.
func (t AccountMainType) NormalBalance() NormalBalance {
	switch t {
	case AccountMainTypeAsset, AccountMainTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// AccountDetailType refines the main type for posting rules. Cash and Bank
// detail types feed the cash flow ledger.
type AccountDetailType string

const (
	AccountDetailTypeCash               AccountDetailType = "Cash"
	AccountDetailTypeBank               AccountDetailType = "Bank"
	AccountDetailTypeAccountsReceivable AccountDetailType = "AccountsReceivable"
	AccountDetailTypeStock              AccountDetailType = "Stock"
	AccountDetailTypeOtherAsset         AccountDetailType = "OtherAsset"
	AccountDetailTypeAccountsPayable    AccountDetailType = "AccountsPayable"
	AccountDetailTypeTaxPayable         AccountDetailType = "TaxPayable"
	AccountDetailTypeOtherLiability     AccountDetailType = "OtherLiability"
	AccountDetailTypeEquity             AccountDetailType = "Equity"
	AccountDetailTypeRevenue            AccountDetailType = "Revenue"
	AccountDetailTypeContraRevenue      AccountDetailType = "ContraRevenue"
	AccountDetailTypeCostOfGoodsSold    AccountDetailType = "CostOfGoodsSold"
	AccountDetailTypeExpense            AccountDetailType = "Expense"
)

func (t AccountDetailType) IsCashLike() bool {
	return t == AccountDetailTypeCash || t == AccountDetailTypeBank
}

type LocationType string

const (
	LocationTypeStore     LocationType = "store"
	LocationTypeWarehouse LocationType = "warehouse"
	LocationTypeOutlet    LocationType = "outlet"
)

func (t LocationType) Valid() bool {
	switch t {
	case LocationTypeStore, LocationTypeWarehouse, LocationTypeOutlet:
		return true
	}
	return false
}

// MovementReason tags every stock movement with its origin.
type MovementReason string

const (
	MovementReasonSale       MovementReason = "sale"
	MovementReasonVoid       MovementReason = "void"
	MovementReasonAdjustment MovementReason = "adjustment"
	MovementReasonTransfer   MovementReason = "transfer"
	MovementReasonOpening    MovementReason = "opening"
)

// MovementRefType names the table a movement's reference id points into.
type MovementRefType string

const (
	MovementRefTypeSale     MovementRefType = "sales"
	MovementRefTypeTransfer MovementRefType = "stock_transfers"
	MovementRefTypeManual   MovementRefType = "manual"
)

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// CanTransitionTo enforces the monotone transfer lifecycle.
func (s TransferStatus) CanTransitionTo(next TransferStatus) bool {
	switch s {
	case TransferStatusPending:
		return next == TransferStatusInTransit || next == TransferStatusCancelled
	case TransferStatusInTransit:
		return next == TransferStatusCompleted
	}
	return false
}

type PaymentType string

const (
	PaymentTypeCash        PaymentType = "cash"
	PaymentTypeInstallment PaymentType = "installment"
	PaymentTypeOther       PaymentType = "other"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeCash, PaymentTypeInstallment, PaymentTypeOther:
		return true
	}
	return false
}

// PaymentMethod is how money physically arrives for a collection.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodBank PaymentMethod = "bank"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodCard:
		return true
	}
	return false
}

// DebitAccountCode is the system account the collection lands on.
// Card settlements arrive on the bank account.
func (m PaymentMethod) DebitAccountCode() string {
	if m == PaymentMethodCash {
		return SystemAccountCash
	}
	return SystemAccountBank
}

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPending PaymentStatus = "pending"
)

type SaleType string

const (
	SaleTypeRetail    SaleType = "retail"
	SaleTypeWholesale SaleType = "wholesale"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusDefaulted PlanStatus = "defaulted"
	PlanStatusCancelled PlanStatus = "cancelled"
)

type InstallmentFrequency string

const (
	FrequencyWeekly   InstallmentFrequency = "weekly"
	FrequencyBiWeekly InstallmentFrequency = "bi-weekly"
	FrequencyMonthly  InstallmentFrequency = "monthly"
)

func (f InstallmentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type InstallmentPaymentStatus string

const (
	InstallmentPaymentPending InstallmentPaymentStatus = "pending"
	InstallmentPaymentPaid    InstallmentPaymentStatus = "paid"
	InstallmentPaymentOverdue InstallmentPaymentStatus = "overdue"
)

// JournalRefType names the business document a journal was posted for.
type JournalRefType string

const (
	JournalRefTypeSale       JournalRefType = "sale"
	JournalRefTypePayment    JournalRefType = "installment_payment"
	JournalRefTypeManual     JournalRefType = "manual"
	JournalRefTypeOpening    JournalRefType = "opening_balance"
	JournalRefTypeAdjustment JournalRefType = "inventory_adjustment"
	JournalRefTypeSaleVoid   JournalRefType = "sale_void"
)
