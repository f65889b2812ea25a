package models

import (
	"context"
	"fmt"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"gorm.io/gorm"
)

// PpBook is a publication-programme subscription book. Nos is the register
// counter; each new subscriber registration increments it atomically and
// derives a register number "CODE-N" from the new value.
type PpBook struct {
	CompanyId int    `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	ID        int    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Code      string `gorm:"size:20;not null" json:"code" binding:"required"`
	ProductId int    `gorm:"default:0" json:"product_id"`
	Nos       int    `gorm:"not null;default:0" json:"nos"`
}

func (PpBook) TableName() string {
	return "pp_books"
}

type NewPpBook struct {
	Code      string `json:"code" binding:"required"`
	ProductId int    `json:"product_id"`
}

func CreatePpBook(ctx context.Context, input *NewPpBook) (*PpBook, error) {
	companyId := config.DefaultCompanyId()

	db := config.GetDB()
	var book PpBook
	err := WithAllocationLock(ctx, db, "pp_books", companyId, func(tx *gorm.DB) error {
		id, err := NextRowId(tx, "pp_books", companyId)
		if err != nil {
			return err
		}

		book = PpBook{
			CompanyId: companyId,
			ID:        id,
			Code:      input.Code,
			ProductId: input.ProductId,
		}
		return tx.Create(&book).Error
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// RegisterPpBookNumber increments the book's register counter and returns
// the new register number. Increment and read stay one statement so
// concurrent registrations never mint the same number. Runs on the caller's
// transaction; a rollback returns the number to the pool.
func RegisterPpBookNumber(tx *gorm.DB, companyId int, bookId int) (string, error) {
	result := tx.Exec(
		"UPDATE pp_books SET nos = LAST_INSERT_ID(nos + 1) WHERE company_id = ? AND id = ?",
		companyId, bookId,
	)
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", utils.ErrorRecordNotFound
	}
	var nos int
	if err := tx.Raw("SELECT LAST_INSERT_ID()").Scan(&nos).Error; err != nil {
		return "", err
	}
	var code string
	if err := tx.Raw("SELECT code FROM pp_books WHERE company_id = ? AND id = ?", companyId, bookId).Scan(&code).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", code, nos), nil
}

func SearchPpBooks(ctx context.Context, query string) ([]*PpBook, error) {
	db := config.GetDB()
	var results []*PpBook
	err := db.WithContext(ctx).
		Where("code LIKE ?", "%"+query+"%").
		Order("code").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
