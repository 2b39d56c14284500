package models

import (
	"github.com/mmdatafocus/shopledger_backend/config"
)

// MigrateTable creates or alters every table this package owns.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&Business{},
		&NumberSequence{},
		&Item{},
		&Location{},
		&LocationStock{},
		&StockMovement{},
		&StockTransfer{},
		&StockTransferLine{},
		&Customer{},
		&Account{},
		&Journal{},
		&JournalLine{},
		&CashFlowEntry{},
		&Sale{},
		&SaleLine{},
		&InstallmentPlan{},
		&InstallmentPayment{},
	)
}
