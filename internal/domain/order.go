package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order is an immutable cashier sale. Prices are snapshotted at the time of sale.
type Order struct {
	ID          string          `json:"id"`
	OrderNumber int             `json:"orderNumber"`
	OrderCode   string          `json:"orderCode"`
	Items       []OrderItem     `json:"items" validate:"required,min=1,dive"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Paid        decimal.Decimal `json:"paid"`
	Change      decimal.Decimal `json:"change"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type OrderItem struct {
	ProductID     string          `json:"productId" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Image         string          `json:"image,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity" validate:"gte=1"`
	SelectedSize  string          `json:"selectedSize,omitempty"`
	SizePrice     decimal.Decimal `json:"sizePrice"`
	SelectedExtra string          `json:"selectedExtra,omitempty"`
	ExtraPrice    decimal.Decimal `json:"extraPrice"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
}

// UnitTotal is the snapshotted per-unit amount including size and extra deltas.
func (i OrderItem) UnitTotal() decimal.Decimal {
	return i.Price.Add(i.SizePrice).Add(i.ExtraPrice)
}

// FormatOrderCode builds the human-readable code printed on receipts,
// e.g. ORD-0042-9F3A.
func FormatOrderCode(number int, id string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	if suffix == "" {
		return fmt.Sprintf("ORD-%04d", number)
	}
	return fmt.Sprintf("ORD-%04d-%s", number, suffix)
}

// OrdersDocument is the persisted shape of the orders file.
type OrdersDocument struct {
	Orders []Order `json:"orders"`
}
