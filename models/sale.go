package models

import (
	"context"
	"strings"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
)

type Sale struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	CustomerNm         string          `gorm:"size:255;not null" json:"customer_nm" binding:"required"`
	BillingAddress     string          `gorm:"type:text" json:"billing_address"`
	SaleDate           time.Time       `gorm:"not null" json:"sale_date" binding:"required"`
	MobileNumber       string          `gorm:"size:20" json:"mobile_number"`
	Type               SaleType        `gorm:"not null;default:0" json:"type"`
	Mode               PaymentMode     `gorm:"not null;default:0" json:"mode"`
	Class              CustomerClass   `gorm:"not null;default:0" json:"class"`
	Cancel             int             `gorm:"not null;default:0" json:"cancel"`
	BillDiscount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bill_discount"`
	BillDiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bill_discount_amount"`
	Gross              decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross"`
	RoundOff           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"round_off"`
	BillAmount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"bill_amount"`
	Note1              string          `gorm:"column:note_1;type:text" json:"note_1"`
	Note2              string          `gorm:"column:note_2;type:text" json:"note_2"`
	FreightPostage     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"freight_postage"`
	ProcessingCharge   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"processing_charge"`
	BillNo             string          `gorm:"size:20;not null;uniqueIndex" json:"bill_no"`
	CrCustomerId       int             `gorm:"index;default:0" json:"cr_customer_id"`
	AgentId            int             `gorm:"default:0" json:"agent_id"`
	BranchId           int             `gorm:"default:0" json:"branch_id"`
	UserId             int             `gorm:"default:0" json:"user_id"`
	Items              []SaleItem      `gorm:"foreignKey:SaleId" json:"items"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Sale) TableName() string {
	return "sales"
}

// SaleItem carries the origin-batch triple (purchase_company_id,
// purchase_id, purchase_item_id) picked at billing time. The triple is the
// lineage every downstream return traces back through.
type SaleItem struct {
	ID                    int             `gorm:"primary_key" json:"id"`
	SaleId                int             `gorm:"index;not null" json:"sale_id"`
	TitleId               int             `gorm:"index;not null" json:"title_id"`
	ExchangeRate          decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"exchange_rate"`
	Quantity              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate                  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Tax                   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	DiscountP             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_p"`
	LineValue             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_value"`
	CurrencyId            int             `gorm:"default:0" json:"currency_id"`
	AllocatedBillDiscount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"allocated_bill_discount"`
	PurchaseCompanyId     int             `gorm:"default:0" json:"purchase_company_id"`
	PurchaseId            int             `gorm:"default:0" json:"purchase_id"`
	PurchaseItemId        int             `gorm:"default:0" json:"purchase_item_id"`
}

func (SaleItem) TableName() string {
	return "sale_items"
}

type NewSale struct {
	CustomerNm         string          `json:"customer_nm" binding:"required"`
	BillingAddress     string          `json:"billing_address"`
	SaleDate           time.Time       `json:"sale_date" binding:"required"`
	MobileNumber       string          `json:"mobile_number" binding:"required"`
	Type               string          `json:"type" binding:"required"`
	Mode               string          `json:"mode" binding:"required"`
	Class              string          `json:"class" binding:"required"`
	Cancel             string          `json:"cancel" binding:"required"`
	BillDiscount       decimal.Decimal `json:"bill_discount"`
	BillDiscountAmount decimal.Decimal `json:"bill_discount_amount"`
	Gross              decimal.Decimal `json:"gross"`
	RoundOff           decimal.Decimal `json:"round_off"`
	BillAmount         decimal.Decimal `json:"bill_amount"`
	Note1              string          `json:"note_1"`
	Note2              string          `json:"note_2"`
	FreightPostage     decimal.Decimal `json:"freight_postage"`
	ProcessingCharge   decimal.Decimal `json:"processing_charge"`
	CustomerId         int             `json:"customer_id"`
	AgentId            int             `json:"agent_id"`
	BranchId           int             `json:"branch_id"`
	Items              []NewSaleItem   `json:"items" binding:"required,min=1"`
}

type NewSaleItem struct {
	ItemId            int             `json:"item_id"`
	ItemName          string          `json:"item_name"`
	TitleId           int             `json:"title_id" binding:"required"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Rate              decimal.Decimal `json:"rate" binding:"required"`
	Tax               decimal.Decimal `json:"tax"`
	Discount          decimal.Decimal `json:"discount"`
	Value             decimal.Decimal `json:"value" binding:"required"`
	CurrencyIndex     int             `json:"currency_index"`
	PurchaseCompanyId int             `json:"purchase_company_id"`
	PurchaseId        int             `json:"purchase_id"`
	PurchaseItemId    int             `json:"purchase_item_id"`
}

type saleEnums struct {
	saleType SaleType
	mode     PaymentMode
	class    CustomerClass
	cancel   int
}

func (input *NewSale) mapEnums() (saleEnums, error) {
	var out saleEnums
	var err error
	if out.saleType, err = SaleTypeFromLabel(input.Type); err != nil {
		return out, err
	}
	if out.mode, err = PaymentModeFromLabel(input.Mode); err != nil {
		return out, err
	}
	if out.class, err = CustomerClassFromLabel(input.Class); err != nil {
		return out, err
	}
	switch strings.ToLower(strings.TrimSpace(input.Cancel)) {
	case "1", "yes", "y", "true":
		out.cancel = 1
	default:
		out.cancel = 0
	}
	return out, nil
}

func (input *NewSale) discountSpec() (DiscountSpec, error) {
	hasLineDiscount := false
	for _, item := range input.Items {
		if item.Discount.IsPositive() {
			hasLineDiscount = true
			break
		}
	}
	return NewDiscountSpec(hasLineDiscount, input.BillDiscount, input.BillDiscountAmount)
}

func (input *NewSale) lineValues() []decimal.Decimal {
	values := make([]decimal.Decimal, len(input.Items))
	for i, item := range input.Items {
		values[i] = item.Value
	}
	return values
}

func CreateSale(ctx context.Context, input *NewSale) (*Sale, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	enums, err := input.mapEnums()
	if err != nil {
		return nil, err
	}

	spec, err := input.discountSpec()
	if err != nil {
		return nil, err
	}

	// only a credit sale keeps the customer reference
	customerId := input.CustomerId
	if enums.saleType != SaleTypeCreditSale {
		customerId = 0
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	release, err := utils.CompanyLock(ctx, companyId, "sale", "sale", "CreateSale")
	if err != nil {
		return nil, err
	}
	defer release()

	allocated := spec.Allocate(input.Gross, input.lineValues())

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	items := make([]SaleItem, 0, len(input.Items))
	for i, item := range input.Items {
		titleId, err := ResolveTitle(tx, TitleRef{TitleId: item.TitleId, ItemName: item.ItemName})
		if err != nil {
			return nil, err
		}
		if titleId == 0 {
			return nil, utils.ErrUnresolvedReference
		}
		items = append(items, SaleItem{
			TitleId:               titleId,
			ExchangeRate:          item.ExchangeRate,
			Quantity:              item.Quantity,
			Rate:                  item.Rate,
			Tax:                   item.Tax,
			DiscountP:             item.Discount,
			LineValue:             item.Value,
			CurrencyId:            item.CurrencyIndex,
			AllocatedBillDiscount: allocated[i],
			PurchaseCompanyId:     item.PurchaseCompanyId,
			PurchaseId:            item.PurchaseId,
			PurchaseItemId:        item.PurchaseItemId,
		})
	}

	seq, err := NextCounterValue(tx, companyId, finYear, CounterCodeCreditSale)
	if err != nil {
		return nil, err
	}

	sale := Sale{
		CustomerNm:         input.CustomerNm,
		BillingAddress:     input.BillingAddress,
		SaleDate:           input.SaleDate,
		MobileNumber:       input.MobileNumber,
		Type:               enums.saleType,
		Mode:               enums.mode,
		Class:              enums.class,
		Cancel:             enums.cancel,
		BillDiscount:       input.BillDiscount,
		BillDiscountAmount: input.BillDiscountAmount,
		Gross:              input.Gross,
		RoundOff:           input.RoundOff,
		BillAmount:         input.BillAmount,
		Note1:              input.Note1,
		Note2:              input.Note2,
		FreightPostage:     input.FreightPostage,
		ProcessingCharge:   input.ProcessingCharge,
		BillNo:             FormatBillNumber(finYear, seq),
		CrCustomerId:       customerId,
		AgentId:            input.AgentId,
		BranchId:           input.BranchId,
		UserId:             userId,
		Items:              items,
	}

	if err := tx.Create(&sale).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// UpdateSale replaces the document in place. Lines are diffed by item id:
// ids present in both sides are updated, payload-only lines inserted,
// database-only lines deleted. Surviving lines keep their ids so the
// lineage of any sales return pointing at them stays intact.
func UpdateSale(ctx context.Context, id int, input *NewSale) (*Sale, error) {
	db := config.GetDB()

	enums, err := input.mapEnums()
	if err != nil {
		return nil, err
	}

	spec, err := input.discountSpec()
	if err != nil {
		return nil, err
	}

	sale, err := utils.FetchModel[Sale](ctx, id)
	if err != nil {
		return nil, err
	}

	customerId := input.CustomerId
	if enums.saleType != SaleTypeCreditSale {
		customerId = 0
	}

	allocated := spec.Allocate(input.Gross, input.lineValues())

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.Model(sale).
		Updates(map[string]interface{}{
			"CustomerNm":         input.CustomerNm,
			"BillingAddress":     input.BillingAddress,
			"SaleDate":           input.SaleDate,
			"MobileNumber":       input.MobileNumber,
			"Type":               enums.saleType,
			"Mode":               enums.mode,
			"Class":              enums.class,
			"Cancel":             enums.cancel,
			"BillDiscount":       input.BillDiscount,
			"BillDiscountAmount": input.BillDiscountAmount,
			"Gross":              input.Gross,
			"RoundOff":           input.RoundOff,
			"BillAmount":         input.BillAmount,
			"Note1":              input.Note1,
			"Note2":              input.Note2,
			"FreightPostage":     input.FreightPostage,
			"ProcessingCharge":   input.ProcessingCharge,
			"CrCustomerId":       customerId,
			"AgentId":            input.AgentId,
			"BranchId":           input.BranchId,
		}).Error; err != nil {
		return nil, err
	}

	var existingIds []int
	if err := tx.Model(&SaleItem{}).Where("sale_id = ?", id).Pluck("id", &existingIds).Error; err != nil {
		return nil, err
	}
	existing := make(map[int]bool, len(existingIds))
	for _, itemId := range existingIds {
		existing[itemId] = true
	}

	payload := make(map[int]bool, len(input.Items))
	for i, item := range input.Items {
		titleId, err := ResolveTitle(tx, TitleRef{TitleId: item.TitleId, ItemName: item.ItemName})
		if err != nil {
			return nil, err
		}
		if titleId == 0 {
			return nil, utils.ErrUnresolvedReference
		}

		if item.ItemId > 0 && existing[item.ItemId] {
			payload[item.ItemId] = true
			if err := tx.Model(&SaleItem{}).
				Where("id = ? AND sale_id = ?", item.ItemId, id).
				Updates(map[string]interface{}{
					"TitleId":               titleId,
					"ExchangeRate":          item.ExchangeRate,
					"Quantity":              item.Quantity,
					"Rate":                  item.Rate,
					"Tax":                   item.Tax,
					"DiscountP":             item.Discount,
					"LineValue":             item.Value,
					"CurrencyId":            item.CurrencyIndex,
					"AllocatedBillDiscount": allocated[i],
					"PurchaseCompanyId":     item.PurchaseCompanyId,
					"PurchaseId":            item.PurchaseId,
					"PurchaseItemId":        item.PurchaseItemId,
				}).Error; err != nil {
				return nil, err
			}
		} else {
			newItem := SaleItem{
				SaleId:                id,
				TitleId:               titleId,
				ExchangeRate:          item.ExchangeRate,
				Quantity:              item.Quantity,
				Rate:                  item.Rate,
				Tax:                   item.Tax,
				DiscountP:             item.Discount,
				LineValue:             item.Value,
				CurrencyId:            item.CurrencyIndex,
				AllocatedBillDiscount: allocated[i],
				PurchaseCompanyId:     item.PurchaseCompanyId,
				PurchaseId:            item.PurchaseId,
				PurchaseItemId:        item.PurchaseItemId,
			}
			if err := tx.Create(&newItem).Error; err != nil {
				return nil, err
			}
		}
	}

	var toDelete []int
	for _, itemId := range existingIds {
		if !payload[itemId] {
			toDelete = append(toDelete, itemId)
		}
	}
	if len(toDelete) > 0 {
		if err := tx.Where("sale_id = ? AND id IN ?", id, toDelete).Delete(&SaleItem{}).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetSale(ctx, id)
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	return utils.FetchModel[Sale](ctx, id, "Items")
}

// SaleItemView is a sale line joined with its title and currency names,
// shaped for return entry and document display.
type SaleItemView struct {
	SaleItem     `gorm:"embedded"`
	ItemName     string `json:"item_name"`
	LanguageId   int    `json:"language_id"`
	CurrencyName string `json:"currency_name"`
}

func GetSaleItems(ctx context.Context, saleId int) ([]SaleItemView, error) {
	db := config.GetDB()
	var items []SaleItemView
	err := db.WithContext(ctx).Raw(`
		SELECT SI.*,
		       CASE WHEN T.language_id = 1 THEN T.title_m ELSE T.title END AS item_name,
		       COALESCE(T.language_id, 0) AS language_id,
		       COALESCE(C.currency_name, 'Indian Rupees') AS currency_name
		  FROM sale_items SI
		  JOIN titles T ON T.id = SI.title_id
		  LEFT JOIN currencies C ON C.id = SI.currency_id
		 WHERE SI.sale_id = ?
		 ORDER BY SI.id`, saleId).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if err := utils.ValidateResourceId[Sale](ctx, saleId); err != nil {
			return nil, err
		}
	}
	return items, nil
}
