package models

import (
	"context"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
)

type Currency struct {
	ID           int    `gorm:"primary_key" json:"id"`
	CurrencyName string `gorm:"size:100;not null" json:"currency_name" binding:"required"`
	Symbol       string `gorm:"size:10" json:"symbol"`
}

func (Currency) TableName() string {
	return "currencies"
}

const currencyCacheKey = "lookup:currencies"

// GetCurrencies lists every currency. The list is tiny and effectively
// static, so it sits in the redis cache for an hour.
func GetCurrencies(ctx context.Context) ([]*Currency, error) {
	var cached []*Currency
	if found, err := config.GetRedisObject(currencyCacheKey, &cached); err == nil && found {
		return cached, nil
	}

	results, err := utils.FetchAllModels[Currency](ctx)
	if err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(currencyCacheKey, results, time.Hour)
	return results, nil
}
