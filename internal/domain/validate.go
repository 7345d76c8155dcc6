package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(productRules, Product{})
	v.RegisterStructValidation(orderRules, Order{})
	v.RegisterStructValidation(orderItemRules, OrderItem{})
	return v
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every rejected field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidateProduct checks shape, price bounds and the offer triple.
func ValidateProduct(p Product) error {
	return check("product", p)
}

// ValidateOrder checks items, snapshotted totals and that paid covers the total.
func ValidateOrder(o Order) error {
	return check("order", o)
}

func check(entity string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	out := &ValidationError{Entity: entity}
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		out.Fields = append(out.Fields, FieldError{Field: field, Rule: fe.Tag()})
	}
	return out
}

func productRules(sl validator.StructLevel) {
	p := sl.Current().Interface().(Product)
	if p.Price.IsNegative() {
		sl.ReportError(p.Price, "price", "Price", "gte0", "")
	}
	if p.SpecialOffer {
		if p.DiscountPercentage == nil {
			sl.ReportError(p.DiscountPercentage, "discountPercentage", "DiscountPercentage", "required_with_offer", "")
		}
		if p.OfferEndsAt == nil {
			sl.ReportError(p.OfferEndsAt, "offerEndsAt", "OfferEndsAt", "required_with_offer", "")
		}
	} else if p.DiscountPercentage != nil || p.OfferEndsAt != nil {
		sl.ReportError(p.SpecialOffer, "specialOffer", "SpecialOffer", "offer_incomplete", "")
	}
	if d := p.DiscountPercentage; d != nil && (d.IsNegative() || d.GreaterThan(hundred)) {
		sl.ReportError(*d, "discountPercentage", "DiscountPercentage", "range0_100", "")
	}
	for i, s := range p.SizesWithPrices {
		if s.Price.IsNegative() {
			sl.ReportError(s.Price, fmt.Sprintf("sizesWithPrices[%d].price", i), "Price", "gte0", "")
		}
	}
	for i, e := range p.Extras {
		if e.Price.IsNegative() {
			sl.ReportError(e.Price, fmt.Sprintf("extras[%d].price", i), "Price", "gte0", "")
		}
	}
	if w := p.WholesaleInfo; w != nil && w.PurchasePrice != nil && w.PurchasePrice.IsNegative() {
		sl.ReportError(*w.PurchasePrice, "wholesaleInfo.purchasePrice", "PurchasePrice", "gte0", "")
	}
}

func orderItemRules(sl validator.StructLevel) {
	it := sl.Current().Interface().(OrderItem)
	if it.Price.IsNegative() || it.SizePrice.IsNegative() || it.ExtraPrice.IsNegative() {
		sl.ReportError(it.Price, "price", "Price", "gte0", "")
	}
	if it.Quantity > 0 && !it.LineTotal.Equal(it.UnitTotal().Mul(decimal.NewFromInt(int64(it.Quantity)))) {
		sl.ReportError(it.LineTotal, "lineTotal", "LineTotal", "line_total_mismatch", "")
	}
}

func orderRules(sl validator.StructLevel) {
	o := sl.Current().Interface().(Order)
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.LineTotal)
	}
	if !sum.Equal(o.TotalAmount) {
		sl.ReportError(o.TotalAmount, "totalAmount", "TotalAmount", "total_mismatch", "")
	}
	if o.Paid.LessThan(o.TotalAmount) {
		sl.ReportError(o.Paid, "paid", "Paid", "gte_total", "")
	}
}
