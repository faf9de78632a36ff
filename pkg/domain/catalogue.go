package domain

import (
	"regexp"
	"strings"
)

// Catalogue is the ordered master list of products. Methods never mutate the
// receiver; they return a new catalogue.
type Catalogue []Product

var importLineSplit = regexp.MustCompile(`\r?\n`)

// NormalizeProduct trims fields and canonicalizes the code.
func NormalizeProduct(p Product) Product {
	return Product{
		Code:        CanonicalCode(p.Code),
		Description: strings.TrimSpace(p.Description),
		Category:    strings.TrimSpace(p.Category),
	}
}

// Clone returns a copy of the catalogue.
func (c Catalogue) Clone() Catalogue {
	if c == nil {
		return nil
	}
	out := make(Catalogue, len(c))
	copy(out, c)
	return out
}

func (c Catalogue) indexOf(code string) int {
	key := CanonicalCode(code)
	for i, p := range c {
		if CanonicalCode(p.Code) == key {
			return i
		}
	}
	return -1
}

// Find looks a product up by code, ignoring case.
func (c Catalogue) Find(code string) (Product, bool) {
	if i := c.indexOf(code); i >= 0 {
		return c[i], true
	}
	return Product{}, false
}

// Contains reports whether code is catalogued.
func (c Catalogue) Contains(code string) bool {
	return c.indexOf(code) >= 0
}

// Upsert replaces the entry sharing p's code in place, or appends p.
func (c Catalogue) Upsert(p Product) Catalogue {
	p.Code = CanonicalCode(p.Code)
	out := c.Clone()
	if i := out.indexOf(p.Code); i >= 0 {
		out[i] = p
		return out
	}
	return append(out, p)
}

// Delete removes the entry matching code. Absent codes are a no-op.
func (c Catalogue) Delete(code string) Catalogue {
	key := CanonicalCode(code)
	out := make(Catalogue, 0, len(c))
	for _, p := range c {
		if CanonicalCode(p.Code) == key {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RenameKey replaces the entry at oldCode with next, keeping its position.
// When next carries a different code that another entry already uses the
// catalogue is returned unchanged with a DuplicateCodeError.
func (c Catalogue) RenameKey(oldCode string, next Product) (Catalogue, error) {
	next.Code = CanonicalCode(next.Code)
	i := c.indexOf(oldCode)
	if i < 0 {
		return c, ProductNotFoundError{Code: CanonicalCode(oldCode)}
	}
	if next.Code != CanonicalCode(oldCode) {
		if j := c.indexOf(next.Code); j >= 0 && j != i {
			return c, DuplicateCodeError{Code: next.Code}
		}
	}
	out := c.Clone()
	out[i] = next
	return out, nil
}

// Search returns up to limit products whose code or description contains
// query, ignoring case. An empty query matches nothing; limit <= 0 means no limit.
func (c Catalogue) Search(query string, limit int) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, p := range c {
		if strings.Contains(strings.ToLower(p.Description), q) || strings.Contains(strings.ToLower(p.Code), q) {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// BulkImport builds a replacement catalogue from alternating description and
// code lines. Blank lines are dropped before pairing and an unpaired trailing
// line is ignored.
func BulkImport(lines []string) (Catalogue, error) {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, strings.TrimSpace(line))
	}
	var out Catalogue
	for i := 0; i+1 < len(kept); i += 2 {
		out = append(out, Product{
			Code:        CanonicalCode(kept[i+1]),
			Description: kept[i],
		})
	}
	if len(out) == 0 {
		return nil, NoValidItemsError{}
	}
	return out, nil
}

// ParseImport splits raw import text into lines and runs BulkImport.
func ParseImport(text string) (Catalogue, error) {
	return BulkImport(importLineSplit.Split(text, -1))
}
