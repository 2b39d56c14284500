package reports

import (
	"context"
	"database/sql"

	"github.com/mmdatafocus/shopledger_backend/config"
	"gorm.io/gorm"
)

// beginReadTx opens the read-only transaction a report runs in, so every
// query in the report sees one snapshot even while postings commit. Callers
// defer tx.Rollback(); a read-only transaction has nothing to commit.
func beginReadTx(ctx context.Context) (*gorm.DB, error) {
	tx := config.GetDB().WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}
