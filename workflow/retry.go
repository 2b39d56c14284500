package workflow

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/shopledger_backend/config"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"gorm.io/gorm"
)

const (
	mysqlErrDeadlock    = 1213
	mysqlErrLockTimeout = 1205
)

func isRetryableTxError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDeadlock || mysqlErr.Number == mysqlErrLockTimeout
	}
	return false
}

func isolationLevel(level string) sql.IsolationLevel {
	switch level {
	case "READ COMMITTED":
		return sql.LevelReadCommitted
	case "SERIALIZABLE":
		return sql.LevelSerializable
	default:
		return sql.LevelRepeatableRead
	}
}

// runInTransaction runs fn in a transaction at the configured isolation
// level, retrying the whole unit on deadlock or lock wait timeout up to the
// configured attempt count. Each retry re-reads everything fn touches, so fn
// must be safe to run again. Exhausted retries surface as ErrTransientConflict.
func runInTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return retryTx(ctx, config.GetDB(), fn)
}

// runPostingTransaction pins one connection, takes the per-business advisory
// lock on it, and runs fn in a transaction on that same connection. The lock
// outlives the transaction, so it is released on the pinned connection after
// commit or rollback: a competing writer acquiring it never sees pre-commit
// state, and no error path leaves the lock held on a pooled connection.
func runPostingTransaction(ctx context.Context, businessId string, fn func(tx *gorm.DB) error) error {
	db := config.GetDB()
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := acquirePostingLock(conn, ctx, businessId); err != nil {
			return err
		}
		defer func() {
			if err := releasePostingLock(conn, ctx, businessId); err != nil {
				config.LogError(config.GetLogger(), "workflow", "runPostingTransaction",
					"release posting lock", map[string]interface{}{"business_id": businessId}, err)
			}
		}()
		return retryTx(ctx, conn, fn)
	})
}

func retryTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	attempts := config.GetOptions().RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		tx := db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: isolationLevel(config.GetOptions().IsolationLevel)})
		if tx.Error != nil {
			return tx.Error
		}
		err = fn(tx)
		if err == nil {
			err = tx.Commit().Error
			if err == nil {
				return nil
			}
		} else {
			tx.Rollback()
		}
		if !isRetryableTxError(err) {
			return err
		}
		config.MetricTxRetries.Inc()
	}

	config.MetricTransientConflicts.Inc()
	config.LogError(config.GetLogger(), "workflow", "retryTx",
		"retries exhausted", nil, err)
	return utils.ErrTransientConflict
}
