package models

import (
	"context"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

type Supplier struct {
	ID         int    `gorm:"primary_key" json:"id"`
	SupplierNm string `gorm:"size:255;not null;index" json:"supplier_nm" binding:"required"`
	Address    string `gorm:"type:text" json:"address"`
	Phone      string `gorm:"size:20" json:"phone"`
	Email      string `gorm:"size:100" json:"email"`
	Gstin      string `gorm:"size:20" json:"gstin"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

type NewSupplier struct {
	SupplierNm string `json:"supplier_nm" binding:"required"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Gstin      string `json:"gstin"`
}

func (input *NewSupplier) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[Supplier](ctx, "supplier_nm", input.SupplierNm, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		SupplierNm: input.SupplierNm,
		Address:    input.Address,
		Phone:      input.Phone,
		Email:      input.Email,
		Gstin:      input.Gstin,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(supplier).
		Updates(map[string]interface{}{
			"SupplierNm": input.SupplierNm,
			"Address":    input.Address,
			"Phone":      input.Phone,
			"Email":      input.Email,
			"Gstin":      input.Gstin,
		}).Error; err != nil {
		return nil, err
	}
	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func SearchSuppliers(ctx context.Context, query string) ([]*Supplier, error) {
	db := config.GetDB()
	var results []*Supplier
	err := db.WithContext(ctx).
		Where("supplier_nm LIKE ?", "%"+query+"%").
		Order("supplier_nm").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
