package store

import (
	"slices"

	"pranzo-storefront/internal/domain"
)

// AddToCart adds delta units of the product with the given selection. A line
// with the same key absorbs the delta; a resulting quantity of zero or less
// removes the line. A non-positive delta for a missing line is a no-op.
func (s *Store) AddToCart(p domain.Product, delta int, size, extra string) State {
	item := domain.CartItem{Product: p.Clone(), Quantity: delta, SelectedSize: size, SelectedExtra: extra}
	key := s.keyOf(item)
	return s.mutate(func(st *State) (bool, bool) {
		i := s.indexOf(st.Cart, key)
		if i < 0 {
			if delta <= 0 {
				return false, false
			}
			st.Cart = append(slices.Clone(st.Cart), item)
			return true, true
		}
		cart := slices.Clone(st.Cart)
		q := cart[i].Quantity + delta
		if q <= 0 {
			st.Cart = slices.Delete(cart, i, i+1)
			return true, true
		}
		cart[i].Quantity = q
		cart[i].Product = item.Product
		st.Cart = cart
		return true, true
	})
}

// RemoveFromCart drops every line of the product.
func (s *Store) RemoveFromCart(productID string) State {
	return s.mutate(func(st *State) (bool, bool) {
		cart := slices.DeleteFunc(slices.Clone(st.Cart), func(it domain.CartItem) bool {
			return it.Product.ID == productID
		})
		if len(cart) == len(st.Cart) {
			return false, false
		}
		st.Cart = cart
		return true, true
	})
}

// RemoveCartLine drops the single line matching key.
func (s *Store) RemoveCartLine(key domain.CartKey) State {
	return s.UpdateCartItemQuantity(key, 0)
}

// UpdateCartItemQuantity sets an absolute quantity; zero or less removes the line.
func (s *Store) UpdateCartItemQuantity(key domain.CartKey, quantity int) State {
	key = s.keyOf(domain.CartItem{Product: domain.Product{ID: key.ProductID}, SelectedSize: key.Size, SelectedExtra: key.Extra})
	return s.mutate(func(st *State) (bool, bool) {
		i := s.indexOf(st.Cart, key)
		if i < 0 {
			return false, false
		}
		cart := slices.Clone(st.Cart)
		if quantity <= 0 {
			st.Cart = slices.Delete(cart, i, i+1)
		} else {
			cart[i].Quantity = quantity
			st.Cart = cart
		}
		return true, true
	})
}

func (s *Store) ClearCart() State {
	return s.mutate(func(st *State) (bool, bool) {
		if len(st.Cart) == 0 {
			return false, false
		}
		st.Cart = nil
		return true, true
	})
}

func (s *Store) indexOf(cart []domain.CartItem, key domain.CartKey) int {
	return slices.IndexFunc(cart, func(it domain.CartItem) bool { return s.keyOf(it) == key })
}
