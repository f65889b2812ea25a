package models

import (
	"fmt"

	"github.com/Goku-007/mathrubhumi/utils"
	"gorm.io/gorm"
)

// Counter is one pre-seeded sequence row. Document numbering depends on the
// row existing; a missing row is a provisioning error, never auto-created.
type Counter struct {
	CompanyId int    `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	FinYear   string `gorm:"primaryKey;autoIncrement:false;size:4" json:"fin_year"`
	Code      string `gorm:"primaryKey;autoIncrement:false;size:20" json:"code"`
	LastValue int64  `gorm:"not null;default:0" json:"last_value"`
}

func (Counter) TableName() string {
	return "last_values"
}

// counter codes
const (
	CounterCodeCreditSale     = "CREDIT_SALE"
	CounterCodePurchase       = "PURCHASE"
	CounterCodeSaleReturn     = "SALE_RT"
	CounterCodePurchaseReturn = "PURCHASE_RT"
	CounterCodePartyReceipt   = "PP_RCPT_NO"
	CounterCodeCustomerBook   = "PP_CSBK_ID"
	CounterCodeRemittance     = "REMITTANCE"
)

// FinYearNone scopes counters that do not reset per fiscal year.
const FinYearNone = "0000"

// NextCounterValue increments the counter row and returns the new value.
// Increment and read are one statement (the LAST_INSERT_ID trick) so the
// row lock taken by the UPDATE is the only serialization needed; concurrent
// callers in separate transactions queue on that lock. Must run inside the
// caller's transaction so a rollback undoes the increment.
func NextCounterValue(tx *gorm.DB, companyId int, finYear string, code string) (int64, error) {
	result := tx.Exec(
		"UPDATE last_values SET last_value = LAST_INSERT_ID(last_value + 1) WHERE company_id = ? AND fin_year = ? AND code = ?",
		companyId, finYear, code,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, utils.ErrCounterNotFound
	}
	var next int64
	if err := tx.Raw("SELECT LAST_INSERT_ID()").Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

// FormatBillNumber renders the human-facing display number for sale-like
// documents, e.g. "2526/00042".
func FormatBillNumber(finYear string, n int64) string {
	return fmt.Sprintf("%s/%05d", finYear, n)
}
