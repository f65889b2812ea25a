package models

import (
	"testing"

	"github.com/Goku-007/mathrubhumi/utils"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestNewDiscountSpec_RejectsConflictingModes(t *testing.T) {
	cases := []struct {
		name    string
		hasLine bool
		percent decimal.Decimal
		amount  decimal.Decimal
	}{
		{"line and percentage", true, d("10"), decimal.Zero},
		{"line and fixed amount", true, decimal.Zero, d("50")},
		{"percentage and fixed amount", false, d("10"), d("50")},
		{"all three", true, d("10"), d("50")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDiscountSpec(tc.hasLine, tc.percent, tc.amount)
			if err != utils.ErrConflictingDiscountModes {
				t.Fatalf("expected ErrConflictingDiscountModes, got %v", err)
			}
		})
	}
}

func TestNewDiscountSpec_SingleModes(t *testing.T) {
	spec, err := NewDiscountSpec(false, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if spec.Mode != DiscountModeNone {
		t.Fatalf("expected None, got %v", spec.Mode)
	}

	spec, err = NewDiscountSpec(true, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("per-line: %v", err)
	}
	if spec.Mode != DiscountModePerLine {
		t.Fatalf("expected PerLine, got %v", spec.Mode)
	}

	spec, err = NewDiscountSpec(false, d("10"), decimal.Zero)
	if err != nil {
		t.Fatalf("percentage: %v", err)
	}
	if spec.Mode != DiscountModePercentage {
		t.Fatalf("expected Percentage, got %v", spec.Mode)
	}

	spec, err = NewDiscountSpec(false, decimal.Zero, d("75"))
	if err != nil {
		t.Fatalf("fixed: %v", err)
	}
	if spec.Mode != DiscountModeFixedAmount {
		t.Fatalf("expected FixedAmount, got %v", spec.Mode)
	}
}

func TestAllocate_PercentageSplitsProportionally(t *testing.T) {
	spec, err := NewDiscountSpec(false, d("10"), decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}

	// Gross 1000, two lines 300/700: a 10% bill discount of 100 lands 30/70.
	allocated := spec.Allocate(d("1000"), []decimal.Decimal{d("300"), d("700")})
	if len(allocated) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocated))
	}
	if !allocated[0].Equal(d("30")) {
		t.Fatalf("line 1: expected 30, got %s", allocated[0])
	}
	if !allocated[1].Equal(d("70")) {
		t.Fatalf("line 2: expected 70, got %s", allocated[1])
	}
}

func TestAllocate_FixedAmountSplitsProportionally(t *testing.T) {
	spec, err := NewDiscountSpec(false, decimal.Zero, d("90"))
	if err != nil {
		t.Fatal(err)
	}

	allocated := spec.Allocate(d("900"), []decimal.Decimal{d("100"), d("200"), d("600")})
	if !allocated[0].Equal(d("10")) || !allocated[1].Equal(d("20")) || !allocated[2].Equal(d("60")) {
		t.Fatalf("unexpected allocations: %v", allocated)
	}
}

func TestAllocate_SumStaysWithinTolerance(t *testing.T) {
	spec, err := NewDiscountSpec(false, decimal.Zero, d("100"))
	if err != nil {
		t.Fatal(err)
	}

	lines := []decimal.Decimal{d("33.33"), d("33.33"), d("33.34")}
	allocated := spec.Allocate(d("100"), lines)

	sum := decimal.Zero
	for _, a := range allocated {
		sum = sum.Add(a)
	}
	diff := sum.Sub(d("100")).Abs()
	if diff.GreaterThan(d("0.01")) {
		t.Fatalf("allocation drifted by %s from the bill discount", diff)
	}
}

func TestAllocate_PerLineAndNoneAllocateNothing(t *testing.T) {
	lines := []decimal.Decimal{d("300"), d("700")}

	perLine, _ := NewDiscountSpec(true, decimal.Zero, decimal.Zero)
	for i, a := range perLine.Allocate(d("1000"), lines) {
		if !a.IsZero() {
			t.Fatalf("per-line mode allocated %s to line %d", a, i)
		}
	}

	none, _ := NewDiscountSpec(false, decimal.Zero, decimal.Zero)
	for i, a := range none.Allocate(d("1000"), lines) {
		if !a.IsZero() {
			t.Fatalf("none mode allocated %s to line %d", a, i)
		}
	}
}

func TestAllocate_ZeroTotalAllocatesNothing(t *testing.T) {
	spec, err := NewDiscountSpec(false, decimal.Zero, d("100"))
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range spec.Allocate(d("500"), []decimal.Decimal{decimal.Zero, decimal.Zero}) {
		if !a.IsZero() {
			t.Fatalf("zero-total allocation %s on line %d", a, i)
		}
	}
}
