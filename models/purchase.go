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

// Purchase is a goods inward. Its items are the origin batches every sale
// and return line points back at, so purchase items are never renumbered.
type Purchase struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseNo      int64           `gorm:"not null;uniqueIndex" json:"purchase_no"`
	InvoiceNo       string          `gorm:"size:50;not null" json:"invoice_no" binding:"required"`
	InvoiceDate     time.Time       `gorm:"not null" json:"invoice_date" binding:"required"`
	SupplierId      int             `gorm:"index;not null" json:"supplier_id" binding:"required"`
	Nett            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"nett"`
	InwardType      int             `gorm:"not null;default:0" json:"inward_type"`
	TransactionType TransactionType `gorm:"not null;default:0" json:"transaction_type"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Gross           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross"`
	PBreakupId1     int             `gorm:"column:p_breakup_id1;default:0" json:"p_breakup_id1"`
	PBreakupAmount1 decimal.Decimal `gorm:"column:p_breakup_amount1;type:decimal(20,4);default:0" json:"p_breakup_amount1"`
	PBreakupId2     int             `gorm:"column:p_breakup_id2;default:0" json:"p_breakup_id2"`
	PBreakupAmount2 decimal.Decimal `gorm:"column:p_breakup_amount2;type:decimal(20,4);default:0" json:"p_breakup_amount2"`
	PBreakupId3     int             `gorm:"column:p_breakup_id3;default:0" json:"p_breakup_id3"`
	PBreakupAmount3 decimal.Decimal `gorm:"column:p_breakup_amount3;type:decimal(20,4);default:0" json:"p_breakup_amount3"`
	PBreakupId4     int             `gorm:"column:p_breakup_id4;default:0" json:"p_breakup_id4"`
	PBreakupAmount4 decimal.Decimal `gorm:"column:p_breakup_amount4;type:decimal(20,4);default:0" json:"p_breakup_amount4"`
	UserId          int             `gorm:"default:0" json:"user_id"`
	BranchId        int             `gorm:"default:0" json:"branch_id"`
	Items           []PurchaseItem  `gorm:"foreignKey:PurchaseId" json:"items"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Purchase) TableName() string {
	return "purchase"
}

type PurchaseItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	PurchaseId   int             `gorm:"index;not null" json:"purchase_id"`
	TitleId      int             `gorm:"index;not null" json:"title_id"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"exchange_rate"`
	DiscountP    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_p"`
	DiscountA    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_a"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	// Closing is the remaining batch quantity; starts equal to Quantity.
	Closing    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"closing"`
	CurrencyId int             `gorm:"default:0" json:"currency_id"`
	Sgst       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sgst"`
	Cgst       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cgst"`
	Isbn       string          `gorm:"size:20" json:"isbn"`
}

func (PurchaseItem) TableName() string {
	return "purchase_items"
}

type NewPurchase struct {
	BillNo          string            `json:"bill_no" binding:"required"`
	BillDate        time.Time         `json:"bill_date" binding:"required"`
	SupplierId      int               `json:"supplier_id" binding:"required"`
	Nett            decimal.Decimal   `json:"nett"`
	IsCash          string            `json:"is_cash"`
	Type            string            `json:"type" binding:"required"`
	Notes           string            `json:"notes"`
	Gross           decimal.Decimal   `json:"gross"`
	PBreakupId1     int               `json:"p_breakup_id1"`
	PBreakupAmt1    decimal.Decimal   `json:"p_breakup_amt1"`
	PBreakupId2     int               `json:"p_breakup_id2"`
	PBreakupAmt2    decimal.Decimal   `json:"p_breakup_amt2"`
	PBreakupId3     int               `json:"p_breakup_id3"`
	PBreakupAmt3    decimal.Decimal   `json:"p_breakup_amt3"`
	PBreakupId4     int               `json:"p_breakup_id4"`
	PBreakupAmt4    decimal.Decimal   `json:"p_breakup_amt4"`
	UserId          int               `json:"user_id"`
	BranchesId      int               `json:"branches_id" binding:"required"`
	Items           []NewPurchaseItem `json:"items" binding:"required,min=1"`
}

type NewPurchaseItem struct {
	ItemId        int             `json:"item_id"`
	ItemName      string          `json:"item_name"`
	Isbn          string          `json:"isbn"`
	TitleId       int             `json:"title_id"`
	PurchaseRate  decimal.Decimal `json:"purchase_rate" binding:"required"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	DiscountAmt   decimal.Decimal `json:"discount_amount"`
	Value         decimal.Decimal `json:"value"`
	CurrencyIndex int             `json:"currency_index"`
}

func (input *NewPurchase) validate(ctx context.Context) error {
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return errors.New("supplier not found")
	}
	if err := utils.ValidateResourceId[Branch](ctx, input.BranchesId); err != nil {
		return errors.New("branch not found")
	}

	var breakupIds []int
	for _, id := range []int{input.PBreakupId1, input.PBreakupId2, input.PBreakupId3, input.PBreakupId4} {
		if id != 0 {
			breakupIds = append(breakupIds, id)
		}
	}
	return utils.MassValidateResourceIds(ctx, []utils.ValidationRule[int]{
		{Model: PurchaseBreakup{}, Ids: breakupIds, Message: "purchase breakup not found"},
	})
}

func inwardTypeFromCash(isCash string) int {
	if strings.EqualFold(strings.TrimSpace(isCash), "yes") {
		return 1
	}
	return 0
}

// mapItem resolves the title and splits the tax evenly into SGST and CGST.
func (item *NewPurchaseItem) mapItem(tx *gorm.DB) (PurchaseItem, error) {
	titleId, err := ResolveTitle(tx, TitleRef{TitleId: item.TitleId, Isbn: item.Isbn, ItemName: item.ItemName})
	if err != nil {
		return PurchaseItem{}, err
	}
	if titleId == 0 {
		return PurchaseItem{}, utils.ErrUnresolvedReference
	}
	half := item.Tax.Div(decimal.NewFromInt(2))
	return PurchaseItem{
		TitleId:      titleId,
		Rate:         item.PurchaseRate,
		ExchangeRate: item.ExchangeRate,
		DiscountP:    item.Discount,
		DiscountA:    item.DiscountAmt,
		Quantity:     item.Quantity,
		Closing:      item.Quantity,
		CurrencyId:   item.CurrencyIndex,
		Sgst:         half,
		Cgst:         half,
		Isbn:         item.Isbn,
	}, nil
}

func CreatePurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	transactionType, err := TransactionTypeFromLabel(input.Type)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	release, err := utils.CompanyLock(ctx, companyId, "purchase", "purchase", "CreatePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	items := make([]PurchaseItem, 0, len(input.Items))
	for _, item := range input.Items {
		mapped, err := item.mapItem(tx)
		if err != nil {
			return nil, err
		}
		items = append(items, mapped)
	}

	purchaseNo, err := NextCounterValue(tx, companyId, finYear, CounterCodePurchase)
	if err != nil {
		return nil, err
	}

	purchase := Purchase{
		PurchaseNo:      purchaseNo,
		InvoiceNo:       input.BillNo,
		InvoiceDate:     input.BillDate,
		SupplierId:      input.SupplierId,
		Nett:            input.Nett,
		InwardType:      inwardTypeFromCash(input.IsCash),
		TransactionType: transactionType,
		Notes:           input.Notes,
		Gross:           input.Gross,
		PBreakupId1:     input.PBreakupId1,
		PBreakupAmount1: input.PBreakupAmt1,
		PBreakupId2:     input.PBreakupId2,
		PBreakupAmount2: input.PBreakupAmt2,
		PBreakupId3:     input.PBreakupId3,
		PBreakupAmount3: input.PBreakupAmt3,
		PBreakupId4:     input.PBreakupId4,
		PBreakupAmount4: input.PBreakupAmt4,
		UserId:          input.UserId,
		BranchId:        input.BranchesId,
		Items:           items,
	}

	if err := tx.Create(&purchase).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// UpdatePurchase diffs lines by item id so surviving batches keep their ids
// and every sale line pointing at them stays valid.
func UpdatePurchase(ctx context.Context, id int, input *NewPurchase) (*Purchase, error) {
	db := config.GetDB()

	transactionType, err := TransactionTypeFromLabel(input.Type)
	if err != nil {
		return nil, err
	}

	purchase, err := utils.FetchModel[Purchase](ctx, id)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.Model(purchase).
		Updates(map[string]interface{}{
			"InvoiceNo":       input.BillNo,
			"InvoiceDate":     input.BillDate,
			"SupplierId":      input.SupplierId,
			"Nett":            input.Nett,
			"InwardType":      inwardTypeFromCash(input.IsCash),
			"TransactionType": transactionType,
			"Notes":           input.Notes,
			"Gross":           input.Gross,
			"PBreakupId1":     input.PBreakupId1,
			"PBreakupAmount1": input.PBreakupAmt1,
			"PBreakupId2":     input.PBreakupId2,
			"PBreakupAmount2": input.PBreakupAmt2,
			"PBreakupId3":     input.PBreakupId3,
			"PBreakupAmount3": input.PBreakupAmt3,
			"PBreakupId4":     input.PBreakupId4,
			"PBreakupAmount4": input.PBreakupAmt4,
			"UserId":          input.UserId,
			"BranchId":        input.BranchesId,
		}).Error; err != nil {
		return nil, err
	}

	var existingIds []int
	if err := tx.Model(&PurchaseItem{}).Where("purchase_id = ?", id).Pluck("id", &existingIds).Error; err != nil {
		return nil, err
	}
	existing := make(map[int]bool, len(existingIds))
	for _, itemId := range existingIds {
		existing[itemId] = true
	}

	payload := make(map[int]bool, len(input.Items))
	for _, item := range input.Items {
		mapped, err := item.mapItem(tx)
		if err != nil {
			return nil, err
		}

		if item.ItemId > 0 && existing[item.ItemId] {
			payload[item.ItemId] = true
			if err := tx.Model(&PurchaseItem{}).
				Where("id = ? AND purchase_id = ?", item.ItemId, id).
				Updates(map[string]interface{}{
					"TitleId":      mapped.TitleId,
					"Rate":         mapped.Rate,
					"ExchangeRate": mapped.ExchangeRate,
					"DiscountP":    mapped.DiscountP,
					"DiscountA":    mapped.DiscountA,
					"Quantity":     mapped.Quantity,
					"Closing":      mapped.Closing,
					"CurrencyId":   mapped.CurrencyId,
					"Sgst":         mapped.Sgst,
					"Cgst":         mapped.Cgst,
					"Isbn":         mapped.Isbn,
				}).Error; err != nil {
				return nil, err
			}
		} else {
			mapped.PurchaseId = id
			if err := tx.Create(&mapped).Error; err != nil {
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
		if err := tx.Where("purchase_id = ? AND id IN ?", id, toDelete).Delete(&PurchaseItem{}).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return GetPurchase(ctx, id)
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	return utils.FetchModel[Purchase](ctx, id, "Items")
}

func GetPurchaseByNo(ctx context.Context, purchaseNo int64) (*Purchase, error) {
	db := config.GetDB()
	var result Purchase
	err := db.WithContext(ctx).Preload("Items").Where("purchase_no = ?", purchaseNo).First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

type PurchaseSummary struct {
	ID          int       `json:"id"`
	InvoiceNo   string    `json:"invoice_no"`
	InvoiceDate time.Time `json:"invoice_date"`
}

func SearchPurchases(ctx context.Context, supplierId int, query string) ([]PurchaseSummary, error) {
	db := config.GetDB()
	var results []PurchaseSummary
	err := db.WithContext(ctx).Model(&Purchase{}).
		Where("supplier_id = ? AND invoice_no LIKE ?", supplierId, "%"+query+"%").
		Limit(config.SearchLimit).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// PurchaseItemView is a purchase line joined with title and currency names
// plus the origin triple, shaped for the batch-selection popup.
type PurchaseItemView struct {
	PurchaseItem `gorm:"embedded"`
	ItemName     string `json:"item_name"`
	LanguageId   int    `json:"language_id"`
	CurrencyName string `json:"currency_name"`
}

func GetPurchaseItems(ctx context.Context, purchaseId int) ([]PurchaseItemView, error) {
	db := config.GetDB()
	var items []PurchaseItemView
	err := db.WithContext(ctx).Raw(`
		SELECT PI.*,
		       CASE WHEN T.language_id = 1 THEN T.title_m ELSE T.title END AS item_name,
		       COALESCE(T.language_id, 0) AS language_id,
		       COALESCE(C.currency_name, 'Indian Rupees') AS currency_name
		  FROM purchase_items PI
		  JOIN titles T ON T.id = PI.title_id
		  LEFT JOIN currencies C ON C.id = PI.currency_id
		 WHERE PI.purchase_id = ?
		 ORDER BY PI.id`, purchaseId).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if err := utils.ValidateResourceId[Purchase](ctx, purchaseId); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Batch is one in-stock inbound batch of a title, carrying the origin
// triple a sale line records when sold from it.
type Batch struct {
	Supplier          string          `json:"supplier"`
	InwardDate        time.Time       `json:"inward_date"`
	Rate              decimal.Decimal `json:"rate"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	Currency          string          `json:"currency"`
	Tax               decimal.Decimal `json:"tax"`
	InwardDiscount    decimal.Decimal `json:"inward_discount"`
	Stock             decimal.Decimal `json:"stock"`
	PurchaseCompanyId int             `json:"purchase_company_id"`
	PurchaseId        int             `json:"purchase_id"`
	PurchaseItemId    int             `json:"purchase_item_id"`
}

// SelectBatches lists the open batches of a title (closing > 0), newest
// purchase join order, for billing-time batch selection.
func SelectBatches(ctx context.Context, titleId int) ([]Batch, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	var batches []Batch
	err := db.WithContext(ctx).Raw(`
		SELECT S.supplier_nm AS supplier,
		       P.invoice_date AS inward_date,
		       PI.rate,
		       PI.exchange_rate,
		       COALESCE(C.currency_name, 'Indian Rupees') AS currency,
		       PI.sgst + PI.cgst AS tax,
		       PI.discount_p AS inward_discount,
		       PI.closing AS stock,
		       ? AS purchase_company_id,
		       PI.purchase_id,
		       PI.id AS purchase_item_id
		  FROM purchase_items PI
		  JOIN purchase P ON P.id = PI.purchase_id
		  JOIN suppliers S ON S.id = P.supplier_id
		  LEFT JOIN currencies C ON C.id = PI.currency_id
		 WHERE PI.title_id = ? AND PI.closing > 0`, companyId, titleId).Scan(&batches).Error
	if err != nil {
		return nil, err
	}
	return batches, nil
}
