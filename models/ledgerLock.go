package models

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireLedgerInitLock serializes ledger initialization per business across
// instances using MySQL advisory locks. There is no record row to lock yet at
// init time, so the usual FOR UPDATE path does not apply.
// NOTE: GET_LOCK is connection-scoped and outlives COMMIT, so acquire and
// release must both run on the init transaction's *gorm.DB, with the release
// before the transaction ends.
func AcquireLedgerInitLock(tx *gorm.DB, businessId string) error {
	lockName := fmt.Sprintf("ledger-init:%s", businessId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire ledger init lock for business_id=%s", businessId)
	}
	return nil
}

func ReleaseLedgerInitLock(tx *gorm.DB, businessId string) {
	lockName := fmt.Sprintf("ledger-init:%s", businessId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
