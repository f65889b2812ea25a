package models

import (
	"context"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReturn records stock coming back from a customer. Each line points
// at the sale line it reverses, and through it at the inbound batch.
type SalesReturn struct {
	ID           int               `gorm:"primary_key" json:"id"`
	CompanyId    int               `gorm:"not null;default:0" json:"company_id"`
	SalesRtNo    int64             `gorm:"not null;uniqueIndex" json:"sales_rt_no"`
	EntryDate    time.Time         `gorm:"not null" json:"entry_date"`
	SType        SaleType          `gorm:"not null;default:0" json:"s_type"`
	Cash         PaymentMode       `gorm:"not null;default:0" json:"cash"`
	CashCustomer string            `gorm:"size:100;not null;default:'.'" json:"cash_customer"`
	Narration    string            `gorm:"type:text" json:"narration"`
	Nett         decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"nett"`
	Gross        decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"gross"`
	DiscountA    decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount_a"`
	DiscountP    decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"discount_p"`
	RoundedOff   decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"rounded_off"`
	UserId       int               `gorm:"default:0" json:"user_id"`
	CrCustomerId int               `gorm:"default:0" json:"cr_customer_id"`
	Items        []SalesReturnItem `gorm:"foreignKey:ParentId" json:"items"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SalesReturn) TableName() string {
	return "sales_rt"
}

type SalesReturnItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	CompanyId    int             `gorm:"not null;default:0" json:"company_id"`
	ParentId     int             `gorm:"index;not null" json:"parent_id"`
	TitleId      int             `gorm:"index;not null" json:"title_id"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Tax          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"exchange_rate"`
	DiscountP    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_p"`
	DiscountA    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_a"`
	Discount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	SaleDetId    int             `gorm:"index;default:0" json:"sale_det_id"`
	LineValue    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_value"`
	// Origin triple copied from the referenced sale line, never from input.
	PurchaseCompanyId int `gorm:"default:0" json:"purchase_company_id"`
	PurchaseId        int `gorm:"default:0" json:"purchase_id"`
	PurchaseDetId     int `gorm:"column:purchase_det_id;default:0" json:"purchase_det_id"`
}

func (SalesReturnItem) TableName() string {
	return "sale_rt_items"
}

type NewSalesReturn struct {
	Date      time.Time            `json:"date" binding:"required"`
	Type      string               `json:"type" binding:"required"`
	Pay       string               `json:"pay"`
	Customer  string               `json:"customer" binding:"required"`
	Notes     string               `json:"notes"`
	Nett      decimal.Decimal      `json:"nett"`
	Amt       decimal.Decimal      `json:"amt"`
	DisP      decimal.Decimal      `json:"dis_p"`
	UserId    int                  `json:"user_id"`
	Items     []NewSalesReturnItem `json:"items" binding:"required,min=1"`
}

type NewSalesReturnItem struct {
	TitleId      int             `json:"title_id" binding:"required"`
	Qty          decimal.Decimal `json:"qty" binding:"required"`
	Rate         decimal.Decimal `json:"rate"`
	Tax          decimal.Decimal `json:"tax"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	DiscountA    decimal.Decimal `json:"discount_a"`
	SaleDetId    int             `json:"sale_det_id"`
	LineValue    decimal.Decimal `json:"line_value"`
}

// originTriple reads the batch origin off the sale line a return row
// reverses. Returns zeros when the return is not tied to a sale line.
func originTriple(tx *gorm.DB, saleDetId int) (int, int, int, error) {
	if saleDetId == 0 {
		return 0, 0, 0, nil
	}
	var origin struct {
		PurchaseCompanyId int
		PurchaseId        int
		PurchaseItemId    int
	}
	result := tx.Raw(
		"SELECT purchase_company_id, purchase_id, purchase_item_id FROM sale_items WHERE id = ?",
		saleDetId,
	).Scan(&origin)
	if result.Error != nil {
		return 0, 0, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, 0, 0, utils.ErrUnresolvedReference
	}
	return origin.PurchaseCompanyId, origin.PurchaseId, origin.PurchaseItemId, nil
}

func CreateSalesReturn(ctx context.Context, input *NewSalesReturn) (*SalesReturn, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	sType, err := SaleTypeFromLabel(input.Type)
	if err != nil {
		return nil, err
	}
	cash, err := PaymentModeFromLabel(input.Pay)
	if err != nil {
		cash = PaymentModeCash
	}

	titleIds := make([]int, 0, len(input.Items))
	for _, item := range input.Items {
		titleIds = append(titleIds, item.TitleId)
	}
	if err := utils.ValidateResourcesId[Title](ctx, titleIds); err != nil {
		return nil, utils.ErrUnresolvedReference
	}

	release, err := utils.CompanyLock(ctx, companyId, "sales_rt", "salesReturn", "CreateSalesReturn")
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

	var crCustomerId int
	if err := tx.Raw("SELECT id FROM cr_customers WHERE customer_nm = ? LIMIT 1", input.Customer).Scan(&crCustomerId).Error; err != nil {
		return nil, err
	}

	items := make([]SalesReturnItem, 0, len(input.Items))
	for _, item := range input.Items {
		purchaseCompanyId, purchaseId, purchaseDetId, err := originTriple(tx, item.SaleDetId)
		if err != nil {
			return nil, err
		}
		exchangeRate := item.ExchangeRate
		if exchangeRate.IsZero() {
			exchangeRate = decimal.NewFromInt(1)
		}
		items = append(items, SalesReturnItem{
			CompanyId:         companyId,
			TitleId:           item.TitleId,
			Quantity:          item.Qty,
			Rate:              item.Rate,
			Tax:               item.Tax,
			ExchangeRate:      exchangeRate,
			DiscountA:         item.DiscountA,
			SaleDetId:         item.SaleDetId,
			LineValue:         item.LineValue,
			PurchaseCompanyId: purchaseCompanyId,
			PurchaseId:        purchaseId,
			PurchaseDetId:     purchaseDetId,
		})
	}

	salesRtNo, err := NextCounterValue(tx, companyId, finYear, CounterCodeSaleReturn)
	if err != nil {
		return nil, err
	}

	cashCustomer := input.Customer
	if cashCustomer == "" {
		cashCustomer = "."
	}

	salesReturn := SalesReturn{
		CompanyId:    companyId,
		SalesRtNo:    salesRtNo,
		EntryDate:    input.Date,
		SType:        sType,
		Cash:         cash,
		CashCustomer: cashCustomer,
		Narration:    input.Notes,
		Nett:         input.Nett,
		DiscountA:    input.Amt,
		DiscountP:    input.DisP,
		UserId:       input.UserId,
		CrCustomerId: crCustomerId,
		Items:        items,
	}

	if err := tx.Create(&salesReturn).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &salesReturn, nil
}

type SalesReturnView struct {
	SalesReturn
	STypeLabel string                `json:"s_type_label"`
	CashLabel  string                `json:"cash_label"`
	ItemViews  []SalesReturnItemView `json:"item_views"`
}

type SalesReturnItemView struct {
	SalesReturnItem `gorm:"embedded"`
	Title           string `json:"title"`
	CurrencyName    string `json:"currency_name"`
}

func GetSalesReturn(ctx context.Context, id int) (*SalesReturnView, error) {
	db := config.GetDB()

	var header SalesReturn
	if err := db.WithContext(ctx).First(&header, id).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var items []SalesReturnItemView
	err := db.WithContext(ctx).Raw(`
		SELECT SRI.*,
		       COALESCE(T.title, '') AS title,
		       COALESCE(C.currency_name, 'Indian Rupees') AS currency_name
		  FROM sale_rt_items SRI
		  LEFT JOIN titles T ON T.id = SRI.title_id
		  LEFT JOIN sale_items SI ON SI.id = SRI.sale_det_id
		  LEFT JOIN currencies C ON C.id = SI.currency_id
		 WHERE SRI.parent_id = ?
		 ORDER BY SRI.id`, id).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return &SalesReturnView{
		SalesReturn: header,
		STypeLabel:  header.SType.Label(),
		CashLabel:   header.Cash.Label(),
		ItemViews:   items,
	}, nil
}
