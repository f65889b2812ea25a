package models

import (
	"testing"
)

// fakeLookup answers probes from a fixed table and records the probe order.
type fakeLookup struct {
	rows   map[string]map[interface{}]int
	probes []string
}

func (f *fakeLookup) fn(column string, value interface{}) (int, bool, error) {
	f.probes = append(f.probes, column)
	id, ok := f.rows[column][value]
	return id, ok, nil
}

func TestResolveTitle_ExplicitIdWins(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"id":   {7: 7},
		"isbn": {"978-1": 99},
	}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{TitleId: 7, Isbn: "978-1"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 7 {
		t.Fatalf("expected explicit id 7 to win, got %d", id)
	}
	if len(lookup.probes) != 1 || lookup.probes[0] != "id" {
		t.Fatalf("expected a single id probe, got %v", lookup.probes)
	}
}

func TestResolveTitle_StaleIdFallsThroughToIsbn(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"id":   {},
		"isbn": {"978-1": 42},
	}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{TitleId: 7, Isbn: "978-1"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 42 {
		t.Fatalf("expected isbn match 42, got %d", id)
	}
	if len(lookup.probes) != 2 || lookup.probes[0] != "id" || lookup.probes[1] != "isbn" {
		t.Fatalf("expected id then isbn probes, got %v", lookup.probes)
	}
}

func TestResolveTitle_ProbeOrderIsbnTitleMTitle(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"isbn":    {},
		"title_m": {},
		"title":   {"Chemmeen": 5},
	}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{
		Isbn:   "000",
		TitleM: "ചെമ്മീൻ",
		Title:  "Chemmeen",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != 5 {
		t.Fatalf("expected 5, got %d", id)
	}
	want := []string{"isbn", "title_m", "title"}
	if len(lookup.probes) != len(want) {
		t.Fatalf("expected probes %v, got %v", want, lookup.probes)
	}
	for i := range want {
		if lookup.probes[i] != want[i] {
			t.Fatalf("probe %d: expected %s, got %s", i, want[i], lookup.probes[i])
		}
	}
}

func TestResolveTitle_ItemNameServesAsTitleMForMalayalam(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"title_m": {"ചെമ്മീൻ": 11},
	}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{ItemName: "ചെമ്മീൻ", LanguageId: 1})
	if err != nil {
		t.Fatal(err)
	}
	if id != 11 {
		t.Fatalf("expected item_name to probe title_m for language 1, got %d", id)
	}
}

func TestResolveTitle_ItemNameFallsBackToTitle(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"title": {"Chemmeen": 12},
	}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{ItemName: "Chemmeen", LanguageId: 2})
	if err != nil {
		t.Fatal(err)
	}
	if id != 12 {
		t.Fatalf("expected item_name title fallback, got %d", id)
	}
}

func TestResolveTitle_UnresolvedReturnsZeroNoError(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{}}

	id, err := resolveTitleWith(lookup.fn, TitleRef{Title: "Unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Fatalf("expected 0 for unresolved, got %d", id)
	}
}

func TestResolveSupplier_IdThenNameThenZero(t *testing.T) {
	lookup := &fakeLookup{rows: map[string]map[interface{}]int{
		"id":          {3: 3},
		"supplier_nm": {"DC Books": 8},
	}}

	id, err := resolveSupplierWith(lookup.fn, 3, "DC Books")
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Fatalf("expected id 3 to win, got %d", id)
	}

	id, err = resolveSupplierWith(lookup.fn, 0, "DC Books")
	if err != nil {
		t.Fatal(err)
	}
	if id != 8 {
		t.Fatalf("expected name match 8, got %d", id)
	}

	id, err = resolveSupplierWith(lookup.fn, 0, "Nobody")
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Fatalf("expected 0 for unresolved supplier, got %d", id)
	}
}
