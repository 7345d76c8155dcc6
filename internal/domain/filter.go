package domain

import "github.com/shopspring/decimal"

type SortKey string

const (
	SortNone      SortKey = ""
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// Filter is a transient catalog query. The zero value matches everything.
type Filter struct {
	Search      string           `json:"search,omitempty"`
	Category    string           `json:"category,omitempty"`
	Subcategory string           `json:"subcategory,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Color       string           `json:"color,omitempty"`
	Size        string           `json:"size,omitempty"`
	Supplier    string           `json:"supplier,omitempty"`
	MinPrice    *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice    *decimal.Decimal `json:"maxPrice,omitempty"`
	SortBy      SortKey          `json:"sortBy,omitempty"`
	// Archived is only honoured by admin views; nil lists both states.
	Archived *bool `json:"archived,omitempty"`
}
