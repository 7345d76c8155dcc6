package catalog

import (
	"slices"

	"pranzo-storefront/internal/domain"
)

// Facets lists the distinct values available to filter widgets.
type Facets struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	Brands        []string `json:"brands"`
	Suppliers     []string `json:"suppliers"`
}

// BuildFacets collects facet values from non-archived products, sorted.
func BuildFacets(products []domain.Product) Facets {
	var f Facets
	for _, p := range products {
		if p.IsArchived {
			continue
		}
		f.Categories = appendUnique(f.Categories, p.Category)
		f.Subcategories = appendUnique(f.Subcategories, p.Subcategory)
		f.Brands = appendUnique(f.Brands, p.Brand)
		f.Suppliers = appendUnique(f.Suppliers, p.Supplier())
	}
	slices.Sort(f.Categories)
	slices.Sort(f.Subcategories)
	slices.Sort(f.Brands)
	slices.Sort(f.Suppliers)
	return f
}

func appendUnique(list []string, v string) []string {
	if v == "" || slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
