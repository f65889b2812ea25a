package models

import (
	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
)

type DiscountMode int

const (
	// DiscountModeNone means no discount anywhere on the document.
	DiscountModeNone DiscountMode = iota
	// DiscountModePerLine means each line carries its own discount percent;
	// nothing gets allocated from the header.
	DiscountModePerLine
	// DiscountModePercentage is a header percentage applied to the gross and
	// split across lines in proportion to line value.
	DiscountModePercentage
	// DiscountModeFixedAmount is a header amount split across lines in
	// proportion to line value.
	DiscountModeFixedAmount
)

// DiscountSpec captures the one discount mode a document is allowed to use.
// Construct it through NewDiscountSpec; the constructor is where mutual
// exclusivity is enforced.
type DiscountSpec struct {
	Mode    DiscountMode
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// NewDiscountSpec rejects documents that mix per-line discounts with a
// header percentage or header amount. Exactly zero or one of the three may
// be present.
func NewDiscountSpec(hasLineDiscount bool, billDiscountPercent, billDiscountAmount decimal.Decimal) (DiscountSpec, error) {
	modes := 0
	if hasLineDiscount {
		modes++
	}
	if billDiscountPercent.IsPositive() {
		modes++
	}
	if billDiscountAmount.IsPositive() {
		modes++
	}
	if modes > 1 {
		return DiscountSpec{}, utils.ErrConflictingDiscountModes
	}

	switch {
	case hasLineDiscount:
		return DiscountSpec{Mode: DiscountModePerLine}, nil
	case billDiscountPercent.IsPositive():
		return DiscountSpec{Mode: DiscountModePercentage, Percent: billDiscountPercent}, nil
	case billDiscountAmount.IsPositive():
		return DiscountSpec{Mode: DiscountModeFixedAmount, Amount: billDiscountAmount}, nil
	default:
		return DiscountSpec{Mode: DiscountModeNone}, nil
	}
}

// Allocate splits the header discount across lines in proportion to line
// value. PerLine and None return a zero vector, as does a zero total line
// value (nothing to apportion against). Each share multiplies before it
// divides, so splits that come out even stay exact; no per-line rounding
// correction is applied beyond that.
func (s DiscountSpec) Allocate(gross decimal.Decimal, lineValues []decimal.Decimal) []decimal.Decimal {
	allocated := make([]decimal.Decimal, len(lineValues))
	for i := range allocated {
		allocated[i] = decimal.Zero
	}

	if s.Mode != DiscountModePercentage && s.Mode != DiscountModeFixedAmount {
		return allocated
	}

	totalValue := decimal.Zero
	for _, v := range lineValues {
		totalValue = totalValue.Add(v)
	}
	if !totalValue.IsPositive() {
		return allocated
	}

	var totalDiscount decimal.Decimal
	if s.Mode == DiscountModePercentage {
		totalDiscount = gross.Mul(s.Percent).Div(decimal.NewFromInt(100))
	} else {
		totalDiscount = s.Amount
	}

	for i, v := range lineValues {
		allocated[i] = v.Mul(totalDiscount).Div(totalValue)
	}
	return allocated
}
