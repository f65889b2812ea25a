package models

import "errors"

// Document enumerations are stored as small integers and exchanged with the
// UI as labels. The label maps are the contract with the front end; the
// integer codes are the contract with the database.

type SaleType int

const (
	SaleTypeCreditSale SaleType = iota
	SaleTypeCashSale
	SaleTypePPSale
	SaleTypeStockTransfer
	SaleTypeApproval
	SaleTypeGiftVoucher
	SaleTypeGiftBill
	SaleTypeCashMemo
)

var saleTypeLabels = map[SaleType]string{
	SaleTypeCreditSale:    "Credit Sale",
	SaleTypeCashSale:      "Cash Sale",
	SaleTypePPSale:        "P P Sale",
	SaleTypeStockTransfer: "Stock Transfer",
	SaleTypeApproval:      "Approval",
	SaleTypeGiftVoucher:   "Gift Voucher",
	SaleTypeGiftBill:      "Gift Bill",
	SaleTypeCashMemo:      "Cash Memo",
}

var saleTypeByLabel = reverseLabels(saleTypeLabels)

func (t SaleType) Label() string {
	return saleTypeLabels[t]
}

func SaleTypeFromLabel(label string) (SaleType, error) {
	t, ok := saleTypeByLabel[label]
	if !ok {
		return 0, errors.New("invalid sale type: " + label)
	}
	return t, nil
}

type PaymentMode int

const (
	PaymentModeCash PaymentMode = iota
	PaymentModeCardsBooks
	PaymentModeCashChq
	PaymentModeNA
	PaymentModeDigital
	PaymentModeCardPeriodical
	PaymentModeCardCalender
	PaymentModeCardDiary
	PaymentModeCardPaperbox
	PaymentModeCardOthers
)

var paymentModeLabels = map[PaymentMode]string{
	PaymentModeCash:           "Cash",
	PaymentModeCardsBooks:     "Cards Books",
	PaymentModeCashChq:        "Cash Chq",
	PaymentModeNA:             "N.A.",
	PaymentModeDigital:        "Digital Payment",
	PaymentModeCardPeriodical: "Card Periodical",
	PaymentModeCardCalender:   "Card Calender",
	PaymentModeCardDiary:      "Card Diary",
	PaymentModeCardPaperbox:   "Card Paperbox",
	PaymentModeCardOthers:     "Card Others",
}

var paymentModeByLabel = reverseLabels(paymentModeLabels)

func (m PaymentMode) Label() string {
	return paymentModeLabels[m]
}

func PaymentModeFromLabel(label string) (PaymentMode, error) {
	m, ok := paymentModeByLabel[label]
	if !ok {
		return 0, errors.New("invalid payment mode: " + label)
	}
	return m, nil
}

type CustomerClass int

const (
	CustomerClassIndividual CustomerClass = iota
	CustomerClassSchool
	CustomerClassCollege
	CustomerClassLocalLibrary
	CustomerClassLocalBodies
	CustomerClassCommissionAgents
	CustomerClassAgents
	CustomerClassOtherBookShops
	CustomerClassCorporateFirms
	CustomerClassNotApplicable
	CustomerClassStaff
	CustomerClassFreelancers
	CustomerClassAuthors
	CustomerClassSection
)

var customerClassLabels = map[CustomerClass]string{
	CustomerClassIndividual:       "Individual",
	CustomerClassSchool:           "Educational Instt - School",
	CustomerClassCollege:          "Educational Instt - College",
	CustomerClassLocalLibrary:     "Local Library",
	CustomerClassLocalBodies:      "Local Bodies",
	CustomerClassCommissionAgents: "Commission Agents",
	CustomerClassAgents:           "Agents",
	CustomerClassOtherBookShops:   "Other Book Shops",
	CustomerClassCorporateFirms:   "Corporate Firms",
	CustomerClassNotApplicable:    "Not Applicable",
	CustomerClassStaff:            "Staff",
	CustomerClassFreelancers:      "Freelancers",
	CustomerClassAuthors:          "Authors",
	CustomerClassSection:          "Section",
}

var customerClassByLabel = reverseLabels(customerClassLabels)

func (c CustomerClass) Label() string {
	return customerClassLabels[c]
}

func CustomerClassFromLabel(label string) (CustomerClass, error) {
	c, ok := customerClassByLabel[label]
	if !ok {
		return 0, errors.New("invalid customer class: " + label)
	}
	return c, nil
}

// TransactionType classifies a goods inward.
type TransactionType int

const (
	TransactionTypePurchase TransactionType = iota
	TransactionTypeReturn
	TransactionTypeConsignment
)

var transactionTypeLabels = map[TransactionType]string{
	TransactionTypePurchase:    "Purchase",
	TransactionTypeReturn:      "Return",
	TransactionTypeConsignment: "Consignment",
}

var transactionTypeByLabel = reverseLabels(transactionTypeLabels)

func (t TransactionType) Label() string {
	return transactionTypeLabels[t]
}

func TransactionTypeFromLabel(label string) (TransactionType, error) {
	t, ok := transactionTypeByLabel[label]
	if !ok {
		return 0, errors.New("invalid transaction type: " + label)
	}
	return t, nil
}

func reverseLabels[E comparable](labels map[E]string) map[string]E {
	m := make(map[string]E, len(labels))
	for k, v := range labels {
		m[v] = k
	}
	return m
}
