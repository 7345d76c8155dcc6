// Package catalog narrows and orders product lists for storefront and admin views.
// Every function is pure and returns a new slice.
package catalog

import (
	"strings"
	"time"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/pricing"
)

// FilterProducts applies every set criterion and always drops archived products.
func FilterProducts(products []domain.Product, f domain.Filter, now time.Time) []domain.Product {
	return filter(products, f, now, func(p domain.Product) bool { return !p.IsArchived })
}

// FilterAdmin applies the same criteria but lets filter.Archived select the archive state.
func FilterAdmin(products []domain.Product, f domain.Filter, now time.Time) []domain.Product {
	return filter(products, f, now, func(p domain.Product) bool {
		return f.Archived == nil || p.IsArchived == *f.Archived
	})
}

func filter(products []domain.Product, f domain.Filter, now time.Time, visible func(domain.Product) bool) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !visible(p) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Subcategory != "" && p.Subcategory != f.Subcategory {
			continue
		}
		if f.Brand != "" && p.Brand != f.Brand {
			continue
		}
		if f.Supplier != "" && p.Supplier() != f.Supplier {
			continue
		}
		if f.Color != "" && !listContains(p.Color, f.Color) {
			continue
		}
		if f.Size != "" && !hasSize(p, f.Size) {
			continue
		}
		if f.MinPrice != nil || f.MaxPrice != nil {
			price := pricing.EffectiveUnitPrice(p, now)
			if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
				continue
			}
			if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// listContains checks membership in a comma-separated field.
func listContains(list, value string) bool {
	value = strings.TrimSpace(value)
	for _, item := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func hasSize(p domain.Product, size string) bool {
	if listContains(p.Size, size) {
		return true
	}
	for _, s := range p.SizesWithPrices {
		if strings.EqualFold(strings.TrimSpace(s.Size), strings.TrimSpace(size)) {
			return true
		}
	}
	return false
}
