// Package pricing computes effective prices, line totals and offer countdowns.
// Amounts keep full decimal precision; Round is applied only for display.
package pricing

import (
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places shown for the store currency.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

// Selection is an optional size/extra choice for a line.
type Selection struct {
	Size  string
	Extra string
}

// IsOfferActive reports whether the special offer applies at now.
// An offer with a zero discount is still active.
func IsOfferActive(p domain.Product, now time.Time) bool {
	return p.SpecialOffer && p.DiscountPercentage != nil && p.OfferEndsAt != nil && p.OfferEndsAt.After(now)
}

// EffectiveUnitPrice is the base price with an active offer discount applied.
func EffectiveUnitPrice(p domain.Product, now time.Time) decimal.Decimal {
	if !IsOfferActive(p, now) {
		return p.Price
	}
	discount := p.Price.Mul(*p.DiscountPercentage).Div(hundred)
	price := p.Price.Sub(discount)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// SavingsPerUnit is the amount an active offer takes off one unit.
func SavingsPerUnit(p domain.Product, now time.Time) decimal.Decimal {
	return p.Price.Sub(EffectiveUnitPrice(p, now))
}

// SizeDelta returns the additive price for an exact size label, or zero.
func SizeDelta(p domain.Product, size string) decimal.Decimal {
	if size == "" {
		return decimal.Zero
	}
	for _, s := range p.SizesWithPrices {
		if s.Size == size {
			return s.Price
		}
	}
	return decimal.Zero
}

// ExtraDelta returns the additive price for an exact extra name, or zero.
func ExtraDelta(p domain.Product, extra string) decimal.Decimal {
	if extra == "" {
		return decimal.Zero
	}
	for _, e := range p.Extras {
		if e.Name == extra {
			return e.Price
		}
	}
	return decimal.Zero
}

// LineModifier sums size and extra deltas. Unknown selections count as zero.
func LineModifier(p domain.Product, size, extra string) decimal.Decimal {
	return SizeDelta(p, size).Add(ExtraDelta(p, extra))
}

// UnitTotal is the effective unit price plus the selection modifier.
func UnitTotal(p domain.Product, sel Selection, now time.Time) decimal.Decimal {
	return EffectiveUnitPrice(p, now).Add(LineModifier(p, sel.Size, sel.Extra))
}

func LineTotal(p domain.Product, sel Selection, quantity int, now time.Time) decimal.Decimal {
	return UnitTotal(p, sel, now).Mul(decimal.NewFromInt(int64(quantity)))
}

// ItemTotal prices a cart item.
func ItemTotal(item domain.CartItem, now time.Time) decimal.Decimal {
	return LineTotal(item.Product, Selection{Size: item.SelectedSize, Extra: item.SelectedExtra}, item.Quantity, now)
}

// CartTotal sums every cart line at now.
func CartTotal(items []domain.CartItem, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(ItemTotal(it, now))
	}
	return total
}

// Round rounds to the currency minor unit, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnits)
}

// Format renders an amount with exactly MinorUnits decimals.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(MinorUnits)
}
