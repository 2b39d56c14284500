package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmdatafocus/shopledger_backend/utils"
	"gorm.io/gorm"
)

const postingLockTimeoutSeconds = 10

// acquirePostingLock takes the per-business advisory lock. The lock is
// session-scoped, not transaction-scoped: it survives commit and rollback,
// so acquire and release must run on the same pinned connection
// (runPostingTransaction owns that pairing). It serializes posting across
// processes sharing the database.
func acquirePostingLock(conn *gorm.DB, ctx context.Context, businessId string) error {
	lockName := fmt.Sprintf("shopledger:posting:%s", businessId)
	var got int
	err := conn.WithContext(ctx).
		Raw("SELECT GET_LOCK(?, ?)", lockName, postingLockTimeoutSeconds).
		Scan(&got).Error
	if err != nil {
		return err
	}
	if got != 1 {
		return utils.ErrTransientConflict
	}
	return nil
}

func releasePostingLock(conn *gorm.DB, ctx context.Context, businessId string) error {
	lockName := fmt.Sprintf("shopledger:posting:%s", businessId)
	var released int
	err := conn.WithContext(ctx).
		Raw("SELECT RELEASE_LOCK(?)", lockName).
		Scan(&released).Error
	if err != nil {
		return err
	}
	if released != 1 {
		return errors.New("posting lock was not held")
	}
	return nil
}
