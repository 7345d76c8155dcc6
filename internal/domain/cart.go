package domain

// CartItem is a product reference with a quantity and an optional size/extra selection.
type CartItem struct {
	Product       Product `json:"product"`
	Quantity      int     `json:"quantity"`
	SelectedSize  string  `json:"selectedSize,omitempty"`
	SelectedExtra string  `json:"selectedExtra,omitempty"`
}

// CartKey identifies a cart line. Distinct size/extra selections of one product are distinct lines.
type CartKey struct {
	ProductID string
	Size      string
	Extra     string
}

func (c CartItem) Key() CartKey {
	return CartKey{ProductID: c.Product.ID, Size: c.SelectedSize, Extra: c.SelectedExtra}
}

// CartDocument is the persisted shape of the cart mirror.
type CartDocument struct {
	Cart []CartItem `json:"cart"`
}
