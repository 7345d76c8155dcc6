package pricing

import (
	"testing"
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func offerProduct(price, discount string, ends time.Time) domain.Product {
	d := dec(discount)
	return domain.Product{
		ID:                 "p1",
		Price:              dec(price),
		SpecialOffer:       true,
		DiscountPercentage: &d,
		OfferEndsAt:        &ends,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got)
}

func TestEffectiveUnitPrice_NoOffer(t *testing.T) {
	p := domain.Product{Price: dec("19.99")}
	for _, at := range []time.Time{now, now.Add(-24 * time.Hour), now.Add(365 * 24 * time.Hour)} {
		assertDec(t, "19.99", EffectiveUnitPrice(p, at))
	}
}

func TestEffectiveUnitPrice_ActiveOffer(t *testing.T) {
	p := offerProduct("100", "20", now.Add(time.Hour))
	assertDec(t, "80", EffectiveUnitPrice(p, now))

	p = offerProduct("33.33", "15", now.Add(time.Minute))
	want := dec("33.33").Mul(decimal.NewFromInt(1).Sub(dec("15").Div(decimal.NewFromInt(100))))
	assertDec(t, want.String(), EffectiveUnitPrice(p, now))
}

func TestEffectiveUnitPrice_ExpiredOfferIsIgnored(t *testing.T) {
	p := offerProduct("100", "20", now.Add(-time.Second))
	assertDec(t, "100", EffectiveUnitPrice(p, now))

	// the end instant itself is no longer active
	p = offerProduct("100", "20", now)
	assertDec(t, "100", EffectiveUnitPrice(p, now))
}

func TestEffectiveUnitPrice_ZeroDiscountStillActive(t *testing.T) {
	p := offerProduct("40", "0", now.Add(time.Hour))
	assert.True(t, IsOfferActive(p, now))
	assertDec(t, "40", EffectiveUnitPrice(p, now))
}

func TestLineModifier(t *testing.T) {
	p := domain.Product{
		Price:           dec("50"),
		SizesWithPrices: []domain.SizePrice{{Size: "M", Price: dec("5")}, {Size: "L", Price: dec("10")}},
		Extras:          []domain.Extra{{Name: "Cheese", Price: dec("2.5")}},
	}
	assertDec(t, "12.5", LineModifier(p, "L", "Cheese"))
	assertDec(t, "0", LineModifier(p, "XL", "Bacon"))
	assertDec(t, "0", LineModifier(p, "", ""))
	assertDec(t, "0", LineModifier(p, "l", ""))
}

func TestLineTotal_Scenarios(t *testing.T) {
	future := offerProduct("100", "20", now.Add(48*time.Hour))
	assertDec(t, "160", LineTotal(future, Selection{}, 2, now))

	past := offerProduct("100", "20", now.Add(-48*time.Hour))
	assertDec(t, "200", LineTotal(past, Selection{}, 2, now))

	sized := domain.Product{Price: dec("50"), SizesWithPrices: []domain.SizePrice{{Size: "L", Price: dec("10")}}}
	assertDec(t, "180", LineTotal(sized, Selection{Size: "L"}, 3, now))
}

func TestLineTotal_LinearInQuantity(t *testing.T) {
	p := offerProduct("12.34", "7", now.Add(time.Hour))
	p.Extras = []domain.Extra{{Name: "Wrap", Price: dec("0.99")}}
	sel := Selection{Extra: "Wrap"}
	one := LineTotal(p, sel, 1, now)
	for q := 0; q <= 25; q++ {
		assertDec(t, one.Mul(decimal.NewFromInt(int64(q))).String(), LineTotal(p, sel, q, now))
	}
}

func TestCartTotal(t *testing.T) {
	a := domain.Product{ID: "a", Price: dec("10")}
	b := offerProduct("100", "50", now.Add(time.Hour))
	items := []domain.CartItem{{Product: a, Quantity: 2}, {Product: b, Quantity: 1}}
	assertDec(t, "70", CartTotal(items, now))
}

func TestRoundAndFormat(t *testing.T) {
	assert.Equal(t, "10.01", Format(dec("10.005")))
	assertDec(t, "2.35", Round(dec("2.345")))
	assert.Equal(t, "7.00", Format(dec("7")))
}

func TestRemainingOfferTime(t *testing.T) {
	ends := now.Add(2*24*time.Hour + 3*time.Hour + 4*time.Minute + 5*time.Second + 600*time.Millisecond)
	c := RemainingOfferTime(offerProduct("10", "10", ends), now)
	assert.Equal(t, Countdown{Days: 2, Hours: 3, Minutes: 4, Seconds: 5}, c)
	assert.Equal(t, 2*24*time.Hour+3*time.Hour+4*time.Minute+5*time.Second, c.Total())

	expired := RemainingOfferTime(offerProduct("10", "10", now.Add(-time.Minute)), now)
	assert.True(t, expired.Expired)
	assert.Zero(t, expired.Total())

	assert.True(t, RemainingOfferTime(domain.Product{Price: dec("1")}, now).Expired)
}
