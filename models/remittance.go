package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Remittance is a cash-desk deposit of a day's takings into a branch
// account. Keyed (company_id, id) with the id allocated under the
// allocation lock, same as purchase returns.
type Remittance struct {
	CompanyId    int             `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	ID           int             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	RemittanceNo int64           `gorm:"index;not null" json:"remittance_no"`
	EntryDate    time.Time       `gorm:"not null" json:"entry_date"`
	AType        int             `gorm:"not null;default:0" json:"a_type"`
	BankId       int             `gorm:"not null;default:0" json:"bank_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	AcReceiptId  int             `gorm:"not null;default:0" json:"ac_receipt_id"`
	Note1        string          `gorm:"column:note_1;size:255" json:"note1"`
	Cancelled    int             `gorm:"not null;default:0" json:"cancelled"`
	ExhibitionId int             `gorm:"not null;default:0" json:"exhibition_id"`
	CName        string          `gorm:"column:c_name;size:100" json:"c_name"`
	AccountId    int             `gorm:"not null" json:"account_id"`
	CustomerId   int             `gorm:"default:0" json:"customer_id"`
	PpCustomerId int             `gorm:"default:0" json:"pp_customer_id"`
	UserId       int             `gorm:"not null;default:0" json:"user_id"`
	Printed      int             `gorm:"not null;default:0" json:"printed"`
}

func (Remittance) TableName() string {
	return "remittance"
}

type NewRemittance struct {
	EntryDate    time.Time       `json:"entry_date" binding:"required"`
	AType        int             `json:"a_type"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Note1        string          `json:"note1"`
	Cancelled    int             `json:"cancelled"`
	CName        string          `json:"c_name"`
	AccountId    int             `json:"account_id" binding:"required"`
	CustomerId   int             `json:"customer_id"`
	PpCustomerId int             `json:"pp_customer_id"`
}

func CreateRemittance(ctx context.Context, input *NewRemittance) (*Remittance, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	if input.AccountId <= 0 {
		return nil, errors.New("account_id (branch id) is required")
	}
	if err := utils.ValidateResourceId[Branch](ctx, input.AccountId); err != nil {
		return nil, errors.New("branch not found")
	}

	// AType 0 is the chq/DD kind; only there can the counter name be blank.
	cName := strings.TrimSpace(input.CName)
	if input.AType != 0 && cName == "" {
		cName = "CASH/CARD/DIGITAL"
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	var remittance Remittance
	err := WithAllocationLock(ctx, db, "remittance", companyId, func(tx *gorm.DB) error {
		id, err := NextRowId(tx, "remittance", companyId)
		if err != nil {
			return err
		}

		remittanceNo, err := NextCounterValue(tx, companyId, finYear, CounterCodeRemittance)
		if err != nil {
			return err
		}

		remittance = Remittance{
			CompanyId:    companyId,
			ID:           id,
			RemittanceNo: remittanceNo,
			EntryDate:    input.EntryDate,
			AType:        input.AType,
			Amount:       input.Amount,
			Note1:        input.Note1,
			Cancelled:    input.Cancelled,
			CName:        cName,
			AccountId:    input.AccountId,
			CustomerId:   input.CustomerId,
			PpCustomerId: input.PpCustomerId,
			UserId:       userId,
		}
		return tx.Create(&remittance).Error
	})
	if err != nil {
		return nil, err
	}
	return &remittance, nil
}

type RemittanceView struct {
	Remittance `gorm:"embedded"`
	BranchName string `json:"branch_name"`
}

func GetRemittanceByNo(ctx context.Context, remittanceNo int64) (*RemittanceView, error) {
	db := config.GetDB()
	var result RemittanceView
	query := db.WithContext(ctx).Raw(`
		SELECT R.*, COALESCE(B.branches_nm, '') AS branch_name
		  FROM remittance R
		  LEFT JOIN branches B ON B.id = R.account_id
		 WHERE R.remittance_no = ?
		 LIMIT 1`, remittanceNo).Scan(&result)
	if query.Error != nil {
		return nil, query.Error
	}
	if query.RowsAffected == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}
