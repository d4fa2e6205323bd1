package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort keys accepted by FilterAndSort.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// DefaultQuickSearchLimit caps the header search preview.
const DefaultQuickSearchLimit = 6

// Query describes a catalog search. A zero Query matches everything and
// sorts by name.
type Query struct {
	Text     string
	Category Category
	Sort     string

	// IncludeMaterials also matches against the materials field, as the
	// full search page does.
	IncludeMaterials bool
}

// FilterAndSort returns the products matching q, sorted by q.Sort. The input
// slice is not modified.
func FilterAndSort(products []Product, q Query) []Product {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		if needle != "" && !matches(p, needle, q.IncludeMaterials) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	default:
		sortByName(out)
	}
	return out
}

// QuickSearch returns up to limit products whose name, description or
// category contains text, in catalog order. Blank text returns nothing.
func QuickSearch(products []Product, text string, limit int) []Product {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return []Product{}
	}
	if limit <= 0 {
		limit = DefaultQuickSearchLimit
	}

	out := make([]Product, 0, limit)
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if matches(p, needle, false) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p Product, needle string, includeMaterials bool) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) ||
		strings.Contains(strings.ToLower(string(p.Category)), needle) {
		return true
	}
	return includeMaterials && strings.Contains(strings.ToLower(p.Materials), needle)
}

func sortByName(products []Product) {
	// collate.Collator is not safe for concurrent use
	c := collate.New(language.English)
	sort.SliceStable(products, func(i, j int) bool {
		return c.CompareString(products[i].Name, products[j].Name) < 0
	})
}
