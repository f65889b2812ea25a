package reports

import (
	"context"
	"errors"
	"time"

	"github.com/Goku-007/mathrubhumi/config"
	"github.com/Goku-007/mathrubhumi/models"
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
)

type BillWiseSaleRegisterRow struct {
	SaleDate       time.Time       `json:"sale_date"`
	BillNo         string          `json:"bill_no"`
	SaleType       int             `json:"-"`
	SaleTypeLabel  string          `gorm:"-" json:"sale_type"`
	CustomerNm     string          `json:"customer_nm"`
	GrossSale      decimal.Decimal `json:"gross_sale"`
	NettSale       decimal.Decimal `json:"nett_sale"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	FreightPostage decimal.Decimal `json:"freight_postage"`
	Note1          string          `json:"note_1"`
	Note2          string          `json:"note_2"`
	User           string          `json:"user"`
}

// GetBillWiseSaleRegisterReport lists one row per bill for the branch and
// date range, cancelled bills excluded. saleTypeId -1 means every type.
func GetBillWiseSaleRegisterReport(ctx context.Context, branchId int, saleTypeId int, fromDate time.Time, toDate time.Time) ([]*BillWiseSaleRegisterRow, error) {

	sqlT := `
SELECT
    S.sale_date,
    S.bill_no,
    S.type AS sale_type,
    S.customer_nm,
    S.gross AS gross_sale,
    S.bill_amount AS nett_sale,
    S.bill_discount_amount + COALESCE(SI.line_discount, 0) AS total_discount,
    S.freight_postage,
    S.note_1,
    S.note_2,
    COALESCE(U.name, '') AS user
FROM
    sales S
        LEFT JOIN
    (SELECT
        sale_id, SUM(allocated_bill_discount) AS line_discount
    FROM
        sale_items
    GROUP BY sale_id) AS SI ON SI.sale_id = S.id
        LEFT JOIN
    users U ON U.id = S.user_id
WHERE
    S.branch_id = @branchId
        AND S.cancel = 0
        AND S.sale_date BETWEEN @fromDate AND @toDate
        {{- if .filterType }} AND S.type = @saleTypeId {{- end }}
ORDER BY S.sale_date , S.bill_no;
`

	if err := utils.ValidateResourceId[models.Branch](ctx, branchId); err != nil {
		return nil, errors.New("branch not found")
	}
	if toDate.Before(fromDate) {
		return nil, errors.New("date range is inverted")
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"filterType": saleTypeId >= 0,
	})
	if err != nil {
		return nil, err
	}

	var records []*BillWiseSaleRegisterRow
	db := config.GetDB()
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"branchId":   branchId,
		"saleTypeId": saleTypeId,
		"fromDate":   fromDate,
		"toDate":     toDate,
	}).Scan(&records).Error; err != nil {
		return nil, err
	}

	for _, r := range records {
		r.SaleTypeLabel = models.SaleType(r.SaleType).Label()
	}
	return records, nil
}

func (r BillWiseSaleRegisterRow) GetCellValues() []interface{} {
	return []interface{}{
		r.SaleDate.Format("2006-01-02"),
		r.BillNo,
		r.SaleTypeLabel,
		r.CustomerNm,
		r.GrossSale,
		r.NettSale,
		r.TotalDiscount,
		r.FreightPostage,
		r.Note1,
		r.Note2,
		r.User,
	}
}

var billWiseSaleRegisterHeadings = []string{
	"Sale Date", "Bill No", "Sale Type", "Customer", "Gross Sale",
	"Nett Sale", "Total Discount", "Freight & Postage", "Note 1", "Note 2", "User",
}

func ExportBillWiseSaleRegister(ctx context.Context, branchId int, saleTypeId int, fromDate time.Time, toDate time.Time) ([]byte, error) {
	records, err := GetBillWiseSaleRegisterReport(ctx, branchId, saleTypeId, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	exporters := make([]ExcelExporter, 0, len(records))
	for _, r := range records {
		exporters = append(exporters, r)
	}
	return exportExcel(exporters, billWiseSaleRegisterHeadings...)
}
