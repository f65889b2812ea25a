package models

import (
	"log"

	"github.com/Goku-007/mathrubhumi/config"
	"gorm.io/gorm"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Counter{},
		&Role{}, &User{},
		&Branch{}, &Currency{}, &Agent{}, &Supplier{}, &CrCustomer{}, &Title{},
		&PurchaseBreakup{},
		&Purchase{}, &PurchaseItem{},
		&Sale{}, &SaleItem{},
		&SalesReturn{}, &SalesReturnItem{},
		&PurchaseReturn{}, &PurchaseReturnItem{},
		&PpBook{}, &PpCustomer{}, &PpCustomerBook{}, &PartyReceipt{},
		&Remittance{},
	)
	if err != nil {
		log.Fatal(err)
	}

	seedCounters(db)
}

// seedCounters creates the counter rows the composers allocate from. A
// missing row is an operator error at allocation time, so seeding happens
// here and never inside a document transaction.
func seedCounters(db *gorm.DB) {
	companyId := config.DefaultCompanyId()
	finYear := config.CurrentFiscalYear()

	seeds := []Counter{
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodeCreditSale},
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodePurchase},
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodeSaleReturn},
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodePurchaseReturn},
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodePartyReceipt},
		{CompanyId: companyId, FinYear: finYear, Code: CounterCodeRemittance},
		{CompanyId: companyId, FinYear: FinYearNone, Code: CounterCodeCustomerBook},
	}
	for _, seed := range seeds {
		if err := db.Where(Counter{
			CompanyId: seed.CompanyId,
			FinYear:   seed.FinYear,
			Code:      seed.Code,
		}).FirstOrCreate(&seed).Error; err != nil {
			log.Fatal(err)
		}
	}
}
