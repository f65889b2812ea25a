package models

import (
	"strings"

	"gorm.io/gorm"
)

// TitleRef carries every key a caller may have for a title. The resolver
// probes them in a fixed priority: explicit id, isbn, title_m, title.
// Some UIs carry the Malayalam title in item_name, flagged by language_id.
type TitleRef struct {
	TitleId    int    `json:"title_id"`
	Isbn       string `json:"isbn"`
	TitleM     string `json:"title_m"`
	Title      string `json:"title"`
	ItemName   string `json:"item_name"`
	LanguageId int    `json:"language_id"`
}

// lookup probes one alternate key and reports whether a row matched.
type refLookup func(column string, value interface{}) (int, bool, error)

func titleLookup(tx *gorm.DB) refLookup {
	return func(column string, value interface{}) (int, bool, error) {
		var id int
		err := tx.Raw("SELECT id FROM titles WHERE "+column+" = ? LIMIT 1", value).Scan(&id).Error
		if err != nil {
			return 0, false, err
		}
		return id, id > 0, nil
	}
}

func supplierLookup(tx *gorm.DB) refLookup {
	return func(column string, value interface{}) (int, bool, error) {
		var id int
		err := tx.Raw("SELECT id FROM suppliers WHERE "+column+" = ? LIMIT 1", value).Scan(&id).Error
		if err != nil {
			return 0, false, err
		}
		return id, id > 0, nil
	}
}

// ResolveTitle returns the title id for a reference, or 0 when nothing
// matches. Unresolved is not an error here; the caller decides whether a
// dangling line is fatal.
func ResolveTitle(tx *gorm.DB, ref TitleRef) (int, error) {
	return resolveTitleWith(titleLookup(tx), ref)
}

func resolveTitleWith(lookup refLookup, ref TitleRef) (int, error) {
	// explicit id wins, but only if the row actually exists
	if ref.TitleId > 0 {
		_, found, err := lookup("id", ref.TitleId)
		if err != nil {
			return 0, err
		}
		if found {
			return ref.TitleId, nil
		}
	}

	if isbn := strings.TrimSpace(ref.Isbn); isbn != "" {
		id, found, err := lookup("isbn", isbn)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
	}

	titleM := strings.TrimSpace(ref.TitleM)
	if titleM == "" && ref.LanguageId == 1 {
		titleM = strings.TrimSpace(ref.ItemName)
	}
	if titleM != "" {
		id, found, err := lookup("title_m", titleM)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
	}

	title := strings.TrimSpace(ref.Title)
	if title == "" {
		title = strings.TrimSpace(ref.ItemName)
	}
	if title != "" {
		id, found, err := lookup("title", title)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
	}

	return 0, nil
}

// ResolveSupplier prefers an explicit id, falls back to exact name, and
// returns 0 when unresolved.
func ResolveSupplier(tx *gorm.DB, supplierId int, supplierNm string) (int, error) {
	return resolveSupplierWith(supplierLookup(tx), supplierId, supplierNm)
}

func resolveSupplierWith(lookup refLookup, supplierId int, supplierNm string) (int, error) {
	if supplierId > 0 {
		_, found, err := lookup("id", supplierId)
		if err != nil {
			return 0, err
		}
		if found {
			return supplierId, nil
		}
	}

	if name := strings.TrimSpace(supplierNm); name != "" {
		id, found, err := lookup("supplier_nm", name)
		if err != nil {
			return 0, err
		}
		if found {
			return id, nil
		}
	}

	return 0, nil
}
