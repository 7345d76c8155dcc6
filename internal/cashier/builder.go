// Package cashier builds point-of-sale orders. Unlike the storefront cart,
// adding the same variant again always accumulates, and prices are frozen
// into the order when it is built.
package cashier

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/pricing"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder   = errors.New("cashier: order has no lines")
	ErrInsufficient = errors.New("cashier: paid amount is below the total")
)

// Line is one product variant on the order being built.
type Line struct {
	Product  domain.Product
	Quantity int
	Size     string
	Extra    string
}

func (l Line) Key() domain.CartKey {
	return domain.CartKey{ProductID: l.Product.ID, Size: l.Size, Extra: l.Extra}
}

// Builder is not safe for concurrent use; a till has one operator.
type Builder struct {
	lines []Line
}

func NewBuilder() *Builder { return &Builder{} }

// Add accumulates qty units of a variant. Non-positive quantities are ignored.
func (b *Builder) Add(p domain.Product, qty int, size, extra string) {
	if qty <= 0 {
		return
	}
	key := domain.CartKey{ProductID: p.ID, Size: size, Extra: extra}
	if i := b.index(key); i >= 0 {
		b.lines[i].Quantity += qty
		return
	}
	b.lines = append(b.lines, Line{Product: p.Clone(), Quantity: qty, Size: size, Extra: extra})
}

// SetQuantity sets an absolute quantity; zero or less removes the line.
func (b *Builder) SetQuantity(key domain.CartKey, qty int) bool {
	i := b.index(key)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		b.lines = slices.Delete(b.lines, i, i+1)
	} else {
		b.lines[i].Quantity = qty
	}
	return true
}

func (b *Builder) Remove(key domain.CartKey) bool {
	return b.SetQuantity(key, 0)
}

func (b *Builder) Reset() { b.lines = nil }

func (b *Builder) Lines() []Line { return slices.Clone(b.lines) }

func (b *Builder) Empty() bool { return len(b.lines) == 0 }

// Total prices every line at now.
func (b *Builder) Total(now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.lines {
		total = total.Add(pricing.LineTotal(l.Product, pricing.Selection{Size: l.Size, Extra: l.Extra}, l.Quantity, now))
	}
	return total
}

// Change is paid minus the total; negative means the customer still owes money.
func (b *Builder) Change(paid decimal.Decimal, now time.Time) decimal.Decimal {
	return paid.Sub(b.Total(now))
}

// Build snapshots the lines into an order draft. The backend assigns the
// order number and code.
func (b *Builder) Build(paid decimal.Decimal, now time.Time) (domain.Order, error) {
	if b.Empty() {
		return domain.Order{}, ErrEmptyOrder
	}
	items := make([]domain.OrderItem, 0, len(b.lines))
	total := decimal.Zero
	for _, l := range b.lines {
		item := domain.OrderItem{
			ProductID:     l.Product.ID,
			Name:          l.Product.Name,
			Image:         l.Product.PrimaryImage(),
			Price:         pricing.EffectiveUnitPrice(l.Product, now),
			Quantity:      l.Quantity,
			SelectedSize:  l.Size,
			SizePrice:     pricing.SizeDelta(l.Product, l.Size),
			SelectedExtra: l.Extra,
			ExtraPrice:    pricing.ExtraDelta(l.Product, l.Extra),
		}
		item.LineTotal = item.UnitTotal().Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(item.LineTotal)
		items = append(items, item)
	}
	if paid.LessThan(total) {
		return domain.Order{}, fmt.Errorf("%w: paid %s, total %s", ErrInsufficient, pricing.Format(paid), pricing.Format(total))
	}
	return domain.Order{
		Items:       items,
		TotalAmount: total,
		Paid:        paid,
		Change:      paid.Sub(total),
		CreatedAt:   now.UTC(),
	}, nil
}

func (b *Builder) index(key domain.CartKey) int {
	return slices.IndexFunc(b.lines, func(l Line) bool { return l.Key() == key })
}
