package models

import "testing"

func TestSaleTypeLabelRoundTrip(t *testing.T) {
	for st := SaleTypeCreditSale; st <= SaleType(7); st++ {
		label := st.Label()
		if label == "" {
			t.Fatalf("sale type %d has no label", st)
		}
		back, err := SaleTypeFromLabel(label)
		if err != nil {
			t.Fatalf("SaleTypeFromLabel(%q): %v", label, err)
		}
		if back != st {
			t.Fatalf("round trip %d -> %q -> %d", st, label, back)
		}
	}
}

func TestEnumFromLabel_UnknownIsError(t *testing.T) {
	if _, err := SaleTypeFromLabel("Barter"); err == nil {
		t.Fatal("expected error for unknown sale type label")
	}
	if _, err := PaymentModeFromLabel("Cowrie Shells"); err == nil {
		t.Fatal("expected error for unknown payment mode label")
	}
	if _, err := CustomerClassFromLabel("Nobility"); err == nil {
		t.Fatal("expected error for unknown customer class label")
	}
	if _, err := TransactionTypeFromLabel("Gift"); err == nil {
		t.Fatal("expected error for unknown transaction type label")
	}
}

func TestNewSaleMapEnums_CancelFlag(t *testing.T) {
	base := NewSale{
		Type:  SaleTypeCreditSale.Label(),
		Mode:  PaymentModeCash.Label(),
		Class: CustomerClass(0).Label(),
	}

	for _, raw := range []string{"1", "yes", "Y", "true", " YES "} {
		input := base
		input.Cancel = raw
		enums, err := input.mapEnums()
		if err != nil {
			t.Fatalf("mapEnums(%q): %v", raw, err)
		}
		if enums.cancel != 1 {
			t.Fatalf("cancel %q: expected 1, got %d", raw, enums.cancel)
		}
	}

	for _, raw := range []string{"0", "no", "", "cancelled"} {
		input := base
		input.Cancel = raw
		enums, err := input.mapEnums()
		if err != nil {
			t.Fatalf("mapEnums(%q): %v", raw, err)
		}
		if enums.cancel != 0 {
			t.Fatalf("cancel %q: expected 0, got %d", raw, enums.cancel)
		}
	}
}
