package models

import (
	"context"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseReturn sends stock back to a supplier. Rows are keyed
// (company_id, id) with the id allocated under the allocation lock, so
// the table has no auto-increment column.
type PurchaseReturn struct {
	CompanyId    int             `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	ID           int             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	PurchaseRtNo int64           `gorm:"not null" json:"purchase_rt_no"`
	EntryDate    time.Time       `gorm:"not null" json:"entry_date"`
	Nett         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"nett"`
	SupplierId   int             `gorm:"default:0" json:"supplier_id"`
	Narration    string          `gorm:"size:255;not null;default:'.'" json:"narration"`
	PrType       int             `gorm:"not null;default:0" json:"pr_type"`
	Gross        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gross"`
	InterState   int             `gorm:"not null;default:0" json:"inter_state"`
	UserId       int             `gorm:"default:0" json:"user_id"`
}

func (PurchaseReturn) TableName() string {
	return "purchase_rt"
}

// PurchaseReturnItem ids restart at 1 within each parent.
type PurchaseReturnItem struct {
	CompanyId      int             `gorm:"primaryKey;autoIncrement:false" json:"company_id"`
	ParentId       int             `gorm:"primaryKey;autoIncrement:false" json:"parent_id"`
	ID             int             `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TitleId        int             `gorm:"index;not null" json:"title_id"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Rate           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	ExchangeRate   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"exchange_rate"`
	AdjustedAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"adjusted_amount"`
	Discount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	LineValue      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_value"`
	PurchaseDetId  int             `gorm:"column:purchase_det_id;default:0" json:"purchase_det_id"`
	CurrencyId     int             `gorm:"default:0" json:"currency_id"`
	// Origin triple of the batch being returned.
	PurchaseCompanyId int `gorm:"default:0" json:"purchase_company_id"`
	PurchaseId        int `gorm:"default:0" json:"purchase_id"`
}

func (PurchaseReturnItem) TableName() string {
	return "purchase_rt_items"
}

type NewPurchaseReturn struct {
	EntryDate  time.Time               `json:"entry_date" binding:"required"`
	Nett       decimal.Decimal         `json:"nett"`
	SupplierId int                     `json:"supplier_id"`
	SupplierNm string                  `json:"supplier_nm"`
	Narration  string                  `json:"narration"`
	PrType     int                     `json:"pr_type"`
	Gross      decimal.Decimal         `json:"gross"`
	InterState int                     `json:"inter_state"`
	UserId     int                     `json:"user_id"`
	Items      []NewPurchaseReturnItem `json:"items" binding:"required,min=1"`
}

type NewPurchaseReturnItem struct {
	RowId             int             `json:"row_id"`
	TitleId           int             `json:"title_id"`
	Isbn              string          `json:"isbn"`
	TitleM            string          `json:"title_m"`
	Title             string          `json:"title"`
	ItemName          string          `json:"item_name"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Rate              decimal.Decimal `json:"rate"`
	ExchangeRate      decimal.Decimal `json:"exchange_rate"`
	AdjustedAmount    decimal.Decimal `json:"adjusted_amount"`
	Discount          decimal.Decimal `json:"discount"`
	LineValue         decimal.Decimal `json:"line_value"`
	PurchaseDetId     int             `json:"purchase_det_id"`
	CurrencyId        int             `json:"currency_id"`
	PurchaseCompanyId int             `json:"purchase_company_id"`
	PurchaseId        int             `json:"purchase_id"`
}

func (item *NewPurchaseReturnItem) titleRef() TitleRef {
	return TitleRef{
		TitleId:  item.TitleId,
		Isbn:     item.Isbn,
		TitleM:   item.TitleM,
		Title:    item.Title,
		ItemName: item.ItemName,
	}
}

func (item *NewPurchaseReturnItem) mapItem(tx *gorm.DB) (PurchaseReturnItem, error) {
	titleId, err := ResolveTitle(tx, item.titleRef())
	if err != nil {
		return PurchaseReturnItem{}, err
	}
	if titleId == 0 {
		return PurchaseReturnItem{}, utils.ErrUnresolvedReference
	}
	return PurchaseReturnItem{
		TitleId:           titleId,
		Quantity:          item.Quantity,
		Rate:              item.Rate,
		ExchangeRate:      item.ExchangeRate,
		AdjustedAmount:    item.AdjustedAmount,
		Discount:          item.Discount,
		LineValue:         item.LineValue,
		PurchaseDetId:     item.PurchaseDetId,
		CurrencyId:        item.CurrencyId,
		PurchaseCompanyId: item.PurchaseCompanyId,
		PurchaseId:        item.PurchaseId,
	}, nil
}

func normalizeNarration(narration string) string {
	if narration == "" {
		return "."
	}
	return narration
}

func CreatePurchaseReturn(ctx context.Context, input *NewPurchaseReturn) (*PurchaseReturn, error) {
	db := config.GetDB()
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	var purchaseReturn PurchaseReturn
	err := WithAllocationLock(ctx, db, "purchase_rt", companyId, func(tx *gorm.DB) error {
		// An unknown supplier is kept as 0 here; the document still stands.
		supplierId, err := ResolveSupplier(tx, input.SupplierId, input.SupplierNm)
		if err != nil {
			return err
		}

		id, err := NextRowId(tx, "purchase_rt", companyId)
		if err != nil {
			return err
		}

		purchaseRtNo, err := NextCounterValue(tx, companyId, finYear, CounterCodePurchaseReturn)
		if err != nil {
			return err
		}

		purchaseReturn = PurchaseReturn{
			CompanyId:    companyId,
			ID:           id,
			PurchaseRtNo: purchaseRtNo,
			EntryDate:    input.EntryDate,
			Nett:         input.Nett,
			SupplierId:   supplierId,
			Narration:    normalizeNarration(input.Narration),
			PrType:       input.PrType,
			Gross:        input.Gross,
			InterState:   input.InterState,
			UserId:       input.UserId,
		}
		if err := tx.Create(&purchaseReturn).Error; err != nil {
			return err
		}

		for i, item := range input.Items {
			mapped, err := item.mapItem(tx)
			if err != nil {
				return err
			}
			mapped.CompanyId = companyId
			mapped.ParentId = id
			mapped.ID = i + 1
			if err := tx.Create(&mapped).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchaseReturn, nil
}

func UpdatePurchaseReturn(ctx context.Context, id int, input *NewPurchaseReturn) (*PurchaseReturn, error) {
	db := config.GetDB()

	var existing PurchaseReturn
	if err := db.WithContext(ctx).Where("id = ?", id).First(&existing).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	companyId := existing.CompanyId

	err := WithAllocationLock(ctx, db, "purchase_rt", companyId, func(tx *gorm.DB) error {
		supplierId, err := ResolveSupplier(tx, input.SupplierId, input.SupplierNm)
		if err != nil {
			return err
		}

		if err := tx.Model(&PurchaseReturn{}).
			Where("company_id = ? AND id = ?", companyId, id).
			Updates(map[string]interface{}{
				"EntryDate":  input.EntryDate,
				"Nett":       input.Nett,
				"SupplierId": supplierId,
				"Narration":  normalizeNarration(input.Narration),
				"PrType":     input.PrType,
				"Gross":      input.Gross,
				"InterState": input.InterState,
				"UserId":     input.UserId,
			}).Error; err != nil {
			return err
		}

		var existingIds []int
		if err := tx.Model(&PurchaseReturnItem{}).
			Where("company_id = ? AND parent_id = ?", companyId, id).
			Pluck("id", &existingIds).Error; err != nil {
			return err
		}
		existingSet := make(map[int]bool, len(existingIds))
		nextChildId := 0
		for _, rowId := range existingIds {
			existingSet[rowId] = true
			if rowId > nextChildId {
				nextChildId = rowId
			}
		}

		payload := make(map[int]bool, len(input.Items))
		for _, item := range input.Items {
			mapped, err := item.mapItem(tx)
			if err != nil {
				return err
			}

			if item.RowId > 0 && existingSet[item.RowId] {
				payload[item.RowId] = true
				if err := tx.Model(&PurchaseReturnItem{}).
					Where("company_id = ? AND parent_id = ? AND id = ?", companyId, id, item.RowId).
					Updates(map[string]interface{}{
						"TitleId":           mapped.TitleId,
						"Quantity":          mapped.Quantity,
						"Rate":              mapped.Rate,
						"ExchangeRate":      mapped.ExchangeRate,
						"AdjustedAmount":    mapped.AdjustedAmount,
						"Discount":          mapped.Discount,
						"LineValue":         mapped.LineValue,
						"PurchaseDetId":     mapped.PurchaseDetId,
						"CurrencyId":        mapped.CurrencyId,
						"PurchaseCompanyId": mapped.PurchaseCompanyId,
						"PurchaseId":        mapped.PurchaseId,
					}).Error; err != nil {
					return err
				}
			} else {
				nextChildId++
				mapped.CompanyId = companyId
				mapped.ParentId = id
				mapped.ID = nextChildId
				if err := tx.Create(&mapped).Error; err != nil {
					return err
				}
			}
		}

		var toDelete []int
		for _, rowId := range existingIds {
			if !payload[rowId] {
				toDelete = append(toDelete, rowId)
			}
		}
		if len(toDelete) > 0 {
			if err := tx.Where("company_id = ? AND parent_id = ? AND id IN ?", companyId, id, toDelete).
				Delete(&PurchaseReturnItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result PurchaseReturn
	if err := db.WithContext(ctx).Where("company_id = ? AND id = ?", companyId, id).First(&result).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

type PurchaseReturnView struct {
	PurchaseReturn
	SupplierNm string                   `json:"supplier_nm"`
	ItemViews  []PurchaseReturnItemView `json:"item_views"`
}

type PurchaseReturnItemView struct {
	PurchaseReturnItem `gorm:"embedded"`
	Title              string `json:"title"`
	LanguageId         int    `json:"language_id"`
	CurrencyName       string `json:"currency_name"`
}

func GetPurchaseReturn(ctx context.Context, id int) (*PurchaseReturnView, error) {
	db := config.GetDB()

	var header PurchaseReturn
	if err := db.WithContext(ctx).Where("id = ?", id).First(&header).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	var supplierNm string
	db.WithContext(ctx).Raw("SELECT COALESCE(supplier_nm, '') FROM suppliers WHERE id = ?", header.SupplierId).Scan(&supplierNm)

	var items []PurchaseReturnItemView
	err := db.WithContext(ctx).Raw(`
		SELECT PRI.*,
		       COALESCE(CASE WHEN T.language_id = 1 THEN T.title_m ELSE T.title END, '') AS title,
		       COALESCE(T.language_id, 0) AS language_id,
		       COALESCE(C.currency_name, 'Indian Rupees') AS currency_name
		  FROM purchase_rt_items PRI
		  JOIN titles T ON T.id = PRI.title_id
		  LEFT JOIN currencies C ON C.id = PRI.currency_id
		 WHERE PRI.company_id = ? AND PRI.parent_id = ?
		 ORDER BY PRI.id`, header.CompanyId, id).Scan(&items).Error
	if err != nil {
		return nil, err
	}

	return &PurchaseReturnView{
		PurchaseReturn: header,
		SupplierNm:     supplierNm,
		ItemViews:      items,
	}, nil
}
