// Package seed loads demo products and branches for manual testing.
package seed

import (
	"context"
	"fmt"
	"time"

	"pranzo-storefront/internal/domain"
	productrepo "pranzo-storefront/internal/repository/product"

	"github.com/shopspring/decimal"
)

// Apply upserts the demo catalog and replaces the branch list. Running it twice
// leaves the same data behind.
func Apply(ctx context.Context, repo productrepo.Repository, now time.Time) error {
	for _, p := range Products(now) {
		if _, err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.ID, err)
		}
	}
	if err := repo.ReplaceBranches(ctx, Branches()); err != nil {
		return fmt.Errorf("replace branches: %w", err)
	}
	return nil
}

// Products returns the demo catalog. The espresso offer ends a week after now.
func Products(now time.Time) []domain.Product {
	offerEnds := now.Add(7 * 24 * time.Hour).UTC().Truncate(time.Second)
	discount := decimal.NewFromInt(20)
	purchase := decimal.RequireFromString("0.90")

	return []domain.Product{
		{
			ID:          "demo-espresso",
			Name:        "Espresso",
			Description: "Double shot, house blend",
			Price:       decimal.RequireFromString("2.50"),
			Category:    "Drinks",
			Subcategory: "Coffee",
			Brand:       "Pranzo",
			SizesWithPrices: []domain.SizePrice{
				{Size: "Single", Price: decimal.Zero},
				{Size: "Double", Price: decimal.RequireFromString("0.80")},
			},
			Extras: []domain.Extra{
				{Name: "Oat milk", Price: decimal.RequireFromString("0.40")},
			},
			SpecialOffer:       true,
			DiscountPercentage: &discount,
			OfferEndsAt:        &offerEnds,
			WholesaleInfo: &domain.WholesaleInfo{
				SupplierName:         "Roastery Nord",
				PurchasePrice:        &purchase,
				MinimumOrderQuantity: 10,
			},
		},
		{
			ID:          "demo-focaccia",
			Name:        "Focaccia",
			Description: "Rosemary and sea salt",
			Price:       decimal.RequireFromString("4.20"),
			Category:    "Bakery",
			Color:       "Golden",
			Size:        "M,L",
		},
		{
			ID:          "demo-tiramisu",
			Name:        "Tiramisù",
			Description: "Made every morning",
			Price:       decimal.RequireFromString("5.00"),
			Category:    "Desserts",
			Brand:       "Pranzo",
		},
	}
}

func Branches() []domain.Branch {
	return []domain.Branch{
		{ID: "centro", Name: "Pranzo Centro", Address: "Via Roma 1", Phone: "+39 000 000 001"},
		{ID: "stazione", Name: "Pranzo Stazione", Address: "Piazza Stazione 4", Phone: "+39 000 000 002"},
	}
}
