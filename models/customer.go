package models

import (
	"context"
	"errors"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

// CrCustomer is a credit-sale customer. Cash-style sales carry the customer
// name on the document itself and keep cr_customer_id at 0.
type CrCustomer struct {
	ID         int           `gorm:"primary_key" json:"id"`
	CustomerNm string        `gorm:"size:255;not null;index" json:"customer_nm" binding:"required"`
	Address    string        `gorm:"type:text" json:"address"`
	Phone      string        `gorm:"size:20" json:"phone"`
	Class      CustomerClass `gorm:"default:0" json:"class"`
}

func (CrCustomer) TableName() string {
	return "cr_customers"
}

type NewCrCustomer struct {
	CustomerNm string `json:"customer_nm" binding:"required"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	Class      string `json:"class"`
}

func (input *NewCrCustomer) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[CrCustomer](ctx, "customer_nm", input.CustomerNm, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return err
		}
	}
	return nil
}

func CreateCrCustomer(ctx context.Context, input *NewCrCustomer) (*CrCustomer, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	class := CustomerClassIndividual
	if input.Class != "" {
		var err error
		class, err = CustomerClassFromLabel(input.Class)
		if err != nil {
			return nil, err
		}
	}

	customer := CrCustomer{
		CustomerNm: input.CustomerNm,
		Address:    input.Address,
		Phone:      input.Phone,
		Class:      class,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCrCustomer(ctx context.Context, id int, input *NewCrCustomer) (*CrCustomer, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[CrCustomer](ctx, id)
	if err != nil {
		return nil, err
	}

	class := customer.Class
	if input.Class != "" {
		class, err = CustomerClassFromLabel(input.Class)
		if err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(customer).
		Updates(map[string]interface{}{
			"CustomerNm": input.CustomerNm,
			"Address":    input.Address,
			"Phone":      input.Phone,
			"Class":      class,
		}).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func DeleteCrCustomer(ctx context.Context, id int) (*CrCustomer, error) {
	customer, err := utils.FetchModel[CrCustomer](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()

	// Do not delete a customer that sales still reference
	var count int64
	if err := db.WithContext(ctx).Model(&Sale{}).
		Where("cr_customer_id = ?", id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("used by sales")
	}

	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func SearchCrCustomers(ctx context.Context, query string) ([]*CrCustomer, error) {
	db := config.GetDB()
	var results []*CrCustomer
	err := db.WithContext(ctx).
		Where("customer_nm LIKE ?", "%"+query+"%").
		Order("customer_nm").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
