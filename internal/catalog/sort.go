package catalog

import (
	"slices"
	"time"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/pricing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultLocale orders names when no locale option is given.
var DefaultLocale = language.English

type sortOptions struct {
	locale language.Tag
}

type SortOption func(*sortOptions)

// WithLocale selects the collation used for name sorting.
func WithLocale(tag language.Tag) SortOption {
	return func(o *sortOptions) { o.locale = tag }
}

// ParseSortKey reports whether s is a known sort key.
func ParseSortKey(s string) (domain.SortKey, bool) {
	switch k := domain.SortKey(s); k {
	case domain.SortNone, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortNameAsc, domain.SortNameDesc:
		return k, true
	}
	return domain.SortNone, false
}

// SortProducts returns a stably sorted copy. Prices compare by effective unit
// price at now; names use locale collation, case-sensitive at the tertiary level.
// An empty or unknown key keeps input order.
func SortProducts(products []domain.Product, key domain.SortKey, now time.Time, opts ...SortOption) []domain.Product {
	out := slices.Clone(products)
	switch key {
	case domain.SortPriceAsc, domain.SortPriceDesc:
		desc := key == domain.SortPriceDesc
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			c := pricing.EffectiveUnitPrice(a, now).Cmp(pricing.EffectiveUnitPrice(b, now))
			if desc {
				return -c
			}
			return c
		})
	case domain.SortNameAsc, domain.SortNameDesc:
		o := sortOptions{locale: DefaultLocale}
		for _, opt := range opts {
			opt(&o)
		}
		// Collator keeps internal buffers, one per call.
		col := collate.New(o.locale)
		desc := key == domain.SortNameDesc
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			c := col.CompareString(a.Name, b.Name)
			if desc {
				return -c
			}
			return c
		})
	}
	return out
}

// Query filters for customers and then sorts by f.SortBy.
func Query(products []domain.Product, f domain.Filter, now time.Time, opts ...SortOption) []domain.Product {
	return SortProducts(FilterProducts(products, f, now), f.SortBy, now, opts...)
}

// QueryAdmin is Query without the unconditional archive exclusion.
func QueryAdmin(products []domain.Product, f domain.Filter, now time.Time, opts ...SortOption) []domain.Product {
	return SortProducts(FilterAdmin(products, f, now), f.SortBy, now, opts...)
}
