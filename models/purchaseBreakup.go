package models

import (
	"context"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

// PurchaseBreakup names one of the charge slots a purchase header can carry
// (freight, packing and the like).
type PurchaseBreakup struct {
	ID        int    `gorm:"primary_key" json:"id"`
	BreakupNm string `gorm:"size:100;not null" json:"breakup_nm" binding:"required"`
}

func (PurchaseBreakup) TableName() string {
	return "purchase_breakups"
}

type NewPurchaseBreakup struct {
	BreakupNm string `json:"breakup_nm" binding:"required"`
}

func CreatePurchaseBreakup(ctx context.Context, input *NewPurchaseBreakup) (*PurchaseBreakup, error) {
	if err := utils.ValidateUnique[PurchaseBreakup](ctx, "breakup_nm", input.BreakupNm, 0); err != nil {
		return nil, err
	}

	breakup := PurchaseBreakup{BreakupNm: input.BreakupNm}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&breakup).Error; err != nil {
		return nil, err
	}
	return &breakup, nil
}

func UpdatePurchaseBreakup(ctx context.Context, id int, input *NewPurchaseBreakup) (*PurchaseBreakup, error) {
	if err := utils.ValidateUnique[PurchaseBreakup](ctx, "breakup_nm", input.BreakupNm, id); err != nil {
		return nil, err
	}

	breakup, err := utils.FetchModel[PurchaseBreakup](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(breakup).
		Updates(map[string]interface{}{"BreakupNm": input.BreakupNm}).Error; err != nil {
		return nil, err
	}
	return breakup, nil
}

func SearchPurchaseBreakups(ctx context.Context, query string) ([]*PurchaseBreakup, error) {
	db := config.GetDB()
	var results []*PurchaseBreakup
	err := db.WithContext(ctx).
		Where("breakup_nm LIKE ?", "%"+query+"%").
		Order("breakup_nm").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
