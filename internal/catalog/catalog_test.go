package catalog

import (
	"testing"
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func boolPtr(b bool) *bool { return &b }

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func fixtures() []domain.Product {
	ends := now.Add(time.Hour)
	return []domain.Product{
		{ID: "1", Name: "Zebra Shirt", Category: "clothes", Subcategory: "shirts", Brand: "Acme", Price: dec("30"), Color: "Red, Blue", Size: "S,M"},
		{ID: "2", Name: "apple juice", Category: "drinks", Price: dec("5"),
			WholesaleInfo: &domain.WholesaleInfo{SupplierName: "FreshCo"}},
		{ID: "3", Name: "Banana Bread", Category: "food", Price: dec("12"),
			SpecialOffer: true, DiscountPercentage: decPtr("50"), OfferEndsAt: &ends},
		{ID: "4", Name: "Old Shirt", Category: "clothes", Price: dec("8"), IsArchived: true},
		{ID: "5", Name: "Hoodie", Category: "clothes", Price: dec("40"),
			SizesWithPrices: []domain.SizePrice{{Size: "XL", Price: dec("5")}}},
	}
}

func TestFilterProducts_EmptyFilterIsIdentityExceptArchived(t *testing.T) {
	in := fixtures()
	out := FilterProducts(in, domain.Filter{}, now)
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(out))

	var visible []domain.Product
	for _, p := range in {
		if !p.IsArchived {
			visible = append(visible, p)
		}
	}
	assert.Equal(t, visible, out)
}

func TestFilterProducts_Criteria(t *testing.T) {
	cases := map[string]struct {
		filter domain.Filter
		want   []string
	}{
		"search is case-insensitive": {domain.Filter{Search: "SHIRT"}, []string{"1"}},
		"category exact":             {domain.Filter{Category: "clothes"}, []string{"1", "5"}},
		"category is not a prefix":   {domain.Filter{Category: "cloth"}, []string{}},
		"subcategory":                {domain.Filter{Subcategory: "shirts"}, []string{"1"}},
		"brand":                      {domain.Filter{Brand: "Acme"}, []string{"1"}},
		"supplier":                   {domain.Filter{Supplier: "FreshCo"}, []string{"2"}},
		"default supplier":           {domain.Filter{Supplier: domain.DefaultSupplier}, []string{"1", "3", "5"}},
		"color membership":           {domain.Filter{Color: "blue"}, []string{"1"}},
		"color is not substring":     {domain.Filter{Color: "Bl"}, []string{}},
		"size list":                  {domain.Filter{Size: "M"}, []string{"1"}},
		"size from priced sizes":     {domain.Filter{Size: "XL"}, []string{"5"}},
		"inclusive range":            {domain.Filter{MinPrice: decPtr("5"), MaxPrice: decPtr("30")}, []string{"1", "2", "3"}},
		"range uses offer price":     {domain.Filter{MaxPrice: decPtr("6")}, []string{"2", "3"}},
		"combined":                   {domain.Filter{Category: "clothes", MinPrice: decPtr("35")}, []string{"5"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterProducts(fixtures(), tc.filter, now)))
		})
	}
}

func TestFilterAdmin_ArchiveState(t *testing.T) {
	all := FilterAdmin(fixtures(), domain.Filter{}, now)
	assert.Len(t, all, 5)

	archived := FilterAdmin(fixtures(), domain.Filter{Archived: boolPtr(true)}, now)
	assert.Equal(t, []string{"4"}, ids(archived))

	active := FilterAdmin(fixtures(), domain.Filter{Archived: boolPtr(false), Category: "clothes"}, now)
	assert.Equal(t, []string{"1", "5"}, ids(active))
}

func TestSortProducts(t *testing.T) {
	in := FilterProducts(fixtures(), domain.Filter{}, now)

	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(SortProducts(in, domain.SortNone, now)))
	assert.Equal(t, []string{"2", "3", "1", "5"}, ids(SortProducts(in, domain.SortPriceAsc, now)))
	assert.Equal(t, []string{"5", "1", "3", "2"}, ids(SortProducts(in, domain.SortPriceDesc, now)))
	// collation puts "apple" before "Zebra", unlike byte order
	assert.Equal(t, []string{"2", "3", "5", "1"}, ids(SortProducts(in, domain.SortNameAsc, now)))
	assert.Equal(t, []string{"1", "5", "3", "2"}, ids(SortProducts(in, domain.SortNameDesc, now)))
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(SortProducts(in, "bogus", now)))

	// input is untouched
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(in))
}

func TestSortProducts_Stable(t *testing.T) {
	in := []domain.Product{
		{ID: "a", Name: "Same", Price: dec("10")},
		{ID: "b", Name: "Same", Price: dec("10")},
		{ID: "c", Name: "Same", Price: dec("1")},
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids(SortProducts(in, domain.SortPriceAsc, now)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(SortProducts(in, domain.SortPriceDesc, now)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(SortProducts(in, domain.SortNameAsc, now)))
}

func TestParseSortKey(t *testing.T) {
	k, ok := ParseSortKey("name-desc")
	require.True(t, ok)
	assert.Equal(t, domain.SortNameDesc, k)

	_, ok = ParseSortKey("newest")
	assert.False(t, ok)
}

func TestQuery(t *testing.T) {
	got := Query(fixtures(), domain.Filter{Category: "clothes", SortBy: domain.SortPriceDesc}, now)
	assert.Equal(t, []string{"5", "1"}, ids(got))

	admin := QueryAdmin(fixtures(), domain.Filter{Category: "clothes", SortBy: domain.SortPriceAsc}, now)
	assert.Equal(t, []string{"4", "1", "5"}, ids(admin))
}

func TestBuildFacets(t *testing.T) {
	f := BuildFacets(fixtures())
	assert.Equal(t, []string{"clothes", "drinks", "food"}, f.Categories)
	assert.Equal(t, []string{"shirts"}, f.Subcategories)
	assert.Equal(t, []string{"Acme"}, f.Brands)
	assert.Equal(t, []string{"FreshCo", domain.DefaultSupplier}, f.Suppliers)
}
