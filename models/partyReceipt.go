package models

import (
	"context"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartyReceipt is a publication-programme money receipt. New enrolments
// (RType 0 or 1) also open a customer book, whose id comes off a counter
// that never resets per fiscal year.
type PartyReceipt struct {
	ID               int             `gorm:"primary_key" json:"id"`
	CompanyId        int             `gorm:"not null;default:1" json:"company_id"`
	ReceiptNo        int64           `gorm:"index;not null" json:"receipt_no"`
	EntryDate        time.Time       `gorm:"not null" json:"entry_date"`
	CustomerId       int             `gorm:"default:0" json:"customer_id"`
	PpCustomerId     int             `gorm:"index;default:0" json:"pp_customer_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	RType            int             `gorm:"not null;default:0" json:"r_type"`
	AType            int             `gorm:"not null;default:0" json:"a_type"`
	Bank             string          `gorm:"size:100" json:"bank"`
	ChqDdNo          string          `gorm:"size:50" json:"chq_dd_no"`
	Installments     string          `gorm:"size:50" json:"installments"`
	Note1            string          `gorm:"column:note_1;size:255" json:"note1"`
	PpBookId         int             `gorm:"default:0" json:"pp_book_id"`
	AgentId          int             `gorm:"default:0" json:"agent_id"`
	ExhibitionId     int             `gorm:"default:0" json:"exhibition_id"`
	UserId           int             `gorm:"default:0" json:"user_id"`
	PpCustomerBookId int64           `gorm:"default:0" json:"pp_customer_book_id"`
}

func (PartyReceipt) TableName() string {
	return "pp_receipts"
}

// PpCustomer is the subscriber a receipt is booked against.
type PpCustomer struct {
	ID           int    `gorm:"primary_key" json:"id"`
	PpCustomerNm string `gorm:"size:100;not null" json:"pp_customer_nm"`
	Address1     string `gorm:"size:255" json:"address1"`
	Address2     string `gorm:"size:255" json:"address2"`
	City         string `gorm:"size:100" json:"city"`
	Pin          string `gorm:"size:1" json:"pin"`
	Telephone    string `gorm:"size:20" json:"telephone"`
}

func (PpCustomer) TableName() string {
	return "pp_customers"
}

// PpCustomerBook links a subscriber to a book and carries the register
// number minted when the enrolment was first receipted.
type PpCustomerBook struct {
	ID           int    `gorm:"primary_key" json:"id"`
	PpCustomerId int    `gorm:"index;not null" json:"pp_customer_id"`
	PpBookId     int    `gorm:"index;not null" json:"pp_book_id"`
	Copies       int    `gorm:"not null;default:1" json:"copies"`
	RegNo        string `gorm:"size:50" json:"reg_no"`
}

func (PpCustomerBook) TableName() string {
	return "pp_customer_books"
}

type NewPartyReceipt struct {
	EntryDate    time.Time       `json:"entry_date" binding:"required"`
	CustomerId   int             `json:"customer_id"`
	PpCustomerId int             `json:"pp_customer_id"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Name         string          `json:"name"`
	Address1     string          `json:"address1"`
	Address2     string          `json:"address2"`
	RType        int             `json:"r_type"`
	AType        int             `json:"a_type"`
	Bank         string          `json:"bank"`
	ChqDdNo      string          `json:"chq_dd_no"`
	PpBookId     int             `json:"pp_book_id"`
	Installments string          `json:"installments"`
	Note1        string          `json:"note1"`
	Copies       int             `json:"copies"`
	AgentId      int             `json:"agent_id"`
	City         string          `json:"city"`
	Pin          string          `json:"pin"`
	Telephone    string          `json:"telephone"`
	ExhibitionId int             `json:"exhibition_id"`
	UserId       int             `json:"user_id"`
}

// newEnrolment is true for the receipt kinds that open a subscription.
func (input *NewPartyReceipt) newEnrolment() bool {
	return input.RType == 0 || input.RType == 1
}

func (input *NewPartyReceipt) ensureCustomer(tx *gorm.DB) (int, error) {
	if input.PpCustomerId != 0 {
		return input.PpCustomerId, nil
	}
	pin := input.Pin
	if len(pin) > 1 {
		pin = pin[:1]
	}
	customer := PpCustomer{
		PpCustomerNm: input.Name,
		Address1:     input.Address1,
		Address2:     input.Address2,
		City:         input.City,
		Pin:          pin,
		Telephone:    input.Telephone,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return 0, err
	}
	return customer.ID, nil
}

func CreatePartyReceipt(ctx context.Context, input *NewPartyReceipt) (*PartyReceipt, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	ppCustomerId, err := input.ensureCustomer(tx)
	if err != nil {
		return nil, err
	}

	var ppCustomerBookId int64
	if input.newEnrolment() {
		ppCustomerBookId, err = NextCounterValue(tx, companyId, FinYearNone, CounterCodeCustomerBook)
		if err != nil {
			return nil, err
		}
	}

	receiptNo, err := NextCounterValue(tx, companyId, finYear, CounterCodePartyReceipt)
	if err != nil {
		return nil, err
	}

	if input.PpBookId != 0 {
		regNo, err := RegisterPpBookNumber(tx, companyId, input.PpBookId)
		if err != nil {
			return nil, err
		}
		copies := input.Copies
		if copies == 0 {
			copies = 1
		}
		book := PpCustomerBook{
			PpCustomerId: ppCustomerId,
			PpBookId:     input.PpBookId,
			Copies:       copies,
			RegNo:        regNo,
		}
		if err := tx.Create(&book).Error; err != nil {
			return nil, err
		}
	}

	receipt := PartyReceipt{
		CompanyId:        companyId,
		ReceiptNo:        receiptNo,
		EntryDate:        input.EntryDate,
		CustomerId:       input.CustomerId,
		PpCustomerId:     ppCustomerId,
		Amount:           input.Amount,
		RType:            input.RType,
		AType:            input.AType,
		Bank:             input.Bank,
		ChqDdNo:          input.ChqDdNo,
		Installments:     input.Installments,
		Note1:            input.Note1,
		PpBookId:         input.PpBookId,
		AgentId:          input.AgentId,
		ExhibitionId:     input.ExhibitionId,
		UserId:           input.UserId,
		PpCustomerBookId: ppCustomerBookId,
	}
	if err := tx.Create(&receipt).Error; err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &receipt, nil
}

// PartyReceiptView joins in everything the entry screen needs to refill.
type PartyReceiptView struct {
	PartyReceipt `gorm:"embedded"`
	Copies       int    `json:"copies"`
	RegNo        string `json:"reg_no"`
	PpCustomerNm string `json:"pp_customer_nm"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Pin          string `json:"pin"`
	Telephone    string `json:"telephone"`
	AgentNm      string `json:"agent_nm"`
	Title        string `json:"title"`
}

func GetPartyReceiptByNo(ctx context.Context, receiptNo int64) (*PartyReceiptView, error) {
	db := config.GetDB()
	var result PartyReceiptView
	query := db.WithContext(ctx).Raw(`
		SELECT R.*,
		       COALESCE(PCB.copies, 0) AS copies,
		       COALESCE(PCB.reg_no, '') AS reg_no,
		       COALESCE(PC.pp_customer_nm, '') AS pp_customer_nm,
		       COALESCE(PC.address1, '') AS address1,
		       COALESCE(PC.address2, '') AS address2,
		       COALESCE(PC.city, '') AS city,
		       COALESCE(PC.pin, '') AS pin,
		       COALESCE(PC.telephone, '') AS telephone,
		       COALESCE(A.agent_nm, '') AS agent_nm,
		       COALESCE(T.title, '') AS title
		  FROM pp_receipts R
		  LEFT JOIN pp_customers PC ON PC.id = R.pp_customer_id
		  LEFT JOIN pp_books B ON B.company_id = R.company_id AND B.id = R.pp_book_id
		  LEFT JOIN titles T ON T.id = B.product_id
		  LEFT JOIN agents A ON A.id = R.agent_id
		  LEFT JOIN pp_customer_books PCB
		         ON PCB.pp_customer_id = R.pp_customer_id AND PCB.pp_book_id = R.pp_book_id
		 WHERE R.receipt_no = ?
		 ORDER BY R.id DESC
		 LIMIT 1`, receiptNo).Scan(&result)
	if query.Error != nil {
		return nil, query.Error
	}
	if query.RowsAffected == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}
