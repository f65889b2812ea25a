package models

import (
	"context"
	"fmt"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"gorm.io/gorm"
)

// AcquireAllocationLock serializes composite-key id allocation per
// (table, company) across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, not transaction-scoped. Composers go
// through WithAllocationLock, which pins one connection for the lock, the
// transaction and the release.
func AcquireAllocationLock(tx *gorm.DB, table string, companyId int) error {
	lockName := allocationLockName(table, companyId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		config.LogError(config.GetLogger(), "lock", "AcquireAllocationLock", "lock wait timed out", lockName, utils.ErrAllocationBusy)
		return utils.ErrAllocationBusy
	}
	return nil
}

func ReleaseAllocationLock(tx *gorm.DB, table string, companyId int) {
	lockName := allocationLockName(table, companyId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

func allocationLockName(table string, companyId int) string {
	return fmt.Sprintf("alloc:%s:%d", table, companyId)
}

// WithAllocationLock pins a single pooled connection, takes the advisory
// lock on it, runs fn inside a transaction on that same connection, and
// releases the lock on the still-live session once the transaction has
// committed or rolled back. The release must not run on the transaction
// handle: after Commit the driver rejects any further statement on it, so
// RELEASE_LOCK would never reach MySQL and the pooled session would keep
// the lock until the connection dies.
func WithAllocationLock(ctx context.Context, db *gorm.DB, table string, companyId int, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := AcquireAllocationLock(conn, table, companyId); err != nil {
			return err
		}
		defer ReleaseAllocationLock(conn, table, companyId)

		tx := conn.Begin()
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback().Error
				panic(r)
			}
		}()
		defer func() { _ = tx.Rollback().Error }()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit().Error
	})
}

// NextRowId allocates the next id for a composite-key table
// (company_id, id). Caller must hold the allocation lock for
// (table, companyId); without it two transactions can read the same MAX.
func NextRowId(tx *gorm.DB, table string, companyId int) (int, error) {
	var next int
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) + 1 FROM %s WHERE company_id = ?", table)
	if err := tx.Raw(query, companyId).Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}
