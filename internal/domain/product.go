package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers; quoted numbers are still accepted on input.
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultSupplier is reported for products without wholesale information.
const DefaultSupplier = "Store"

type Product struct {
	ID                 string           `json:"id" validate:"required"`
	Name               string           `json:"name" validate:"required"`
	Description        string           `json:"description,omitempty"`
	Price              decimal.Decimal  `json:"price"`
	SpecialOffer       bool             `json:"specialOffer,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	OfferEndsAt        *time.Time       `json:"offerEndsAt,omitempty"`
	SizesWithPrices    []SizePrice      `json:"sizesWithPrices,omitempty" validate:"omitempty,dive"`
	Extras             []Extra          `json:"extras,omitempty" validate:"omitempty,dive"`
	Category           string           `json:"category" validate:"required"`
	Subcategory        string           `json:"subcategory,omitempty"`
	Brand              string           `json:"brand,omitempty"`
	Color              string           `json:"color,omitempty"`
	Size               string           `json:"size,omitempty"`
	IsArchived         bool             `json:"isArchived"`
	ExpirationDate     *time.Time       `json:"expirationDate,omitempty"`
	Images             []string         `json:"images,omitempty" validate:"omitempty,dive,required"`
	WholesaleInfo      *WholesaleInfo   `json:"wholesaleInfo,omitempty"`
	CreatedAt          *time.Time       `json:"createdAt,omitempty"`
}

// SizePrice is an additive price for a size label.
type SizePrice struct {
	Size  string          `json:"size" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

// Extra is an additive price for an optional add-on.
type Extra struct {
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

type WholesaleInfo struct {
	SupplierName         string           `json:"supplierName,omitempty"`
	SupplierPhone        string           `json:"supplierPhone,omitempty"`
	SupplierContact      string           `json:"supplierContact,omitempty"`
	SupplierLocation     string           `json:"supplierLocation,omitempty"`
	PurchasePrice        *decimal.Decimal `json:"purchasePrice,omitempty"`
	MinimumOrderQuantity int              `json:"minimumOrderQuantity,omitempty" validate:"gte=0"`
}

// Supplier returns the wholesale supplier name or DefaultSupplier.
func (p Product) Supplier() string {
	if p.WholesaleInfo == nil || p.WholesaleInfo.SupplierName == "" {
		return DefaultSupplier
	}
	return p.WholesaleInfo.SupplierName
}

// PrimaryImage returns the first image URL, if any.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// IsExpired reports whether the expiration date has passed at now.
func (p Product) IsExpired(now time.Time) bool {
	return p.ExpirationDate != nil && !p.ExpirationDate.After(now)
}

// Clone returns a deep copy so snapshots never share backing arrays or pointers.
func (p Product) Clone() Product {
	c := p
	if p.DiscountPercentage != nil {
		d := *p.DiscountPercentage
		c.DiscountPercentage = &d
	}
	c.OfferEndsAt = cloneTime(p.OfferEndsAt)
	c.ExpirationDate = cloneTime(p.ExpirationDate)
	c.CreatedAt = cloneTime(p.CreatedAt)
	if p.SizesWithPrices != nil {
		c.SizesWithPrices = append([]SizePrice(nil), p.SizesWithPrices...)
	}
	if p.Extras != nil {
		c.Extras = append([]Extra(nil), p.Extras...)
	}
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.WholesaleInfo != nil {
		w := *p.WholesaleInfo
		if w.PurchasePrice != nil {
			pp := *w.PurchasePrice
			w.PurchasePrice = &pp
		}
		c.WholesaleInfo = &w
	}
	return c
}

// CloneProducts deep-copies a product slice.
func CloneProducts(list []Product) []Product {
	if list == nil {
		return nil
	}
	out := make([]Product, len(list))
	for i, p := range list {
		out[i] = p.Clone()
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Branch is a physical store location listed next to the catalog.
type Branch struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	MapURL  string `json:"mapUrl,omitempty"`
}

// StoreSnapshot is the full catalog document returned by GET /api/store.
type StoreSnapshot struct {
	Products []Product `json:"products"`
	Branches []Branch  `json:"branches"`
}
