package store

import (
	"slices"

	"pranzo-storefront/internal/domain"
)

// SetProducts replaces the catalog. Local edits missing from list are lost.
// Cart lines pick up the fresh product data for ids still present.
func (s *Store) SetProducts(list []domain.Product) State {
	products := domain.CloneProducts(list)
	return s.mutate(func(st *State) (bool, bool) {
		st.Products = products
		cart, changed := refreshCart(st.Cart, products)
		st.Cart = cart
		return true, changed
	})
}

// AddProduct appends p, or replaces the product with the same id.
func (s *Store) AddProduct(p domain.Product) State {
	p = p.Clone()
	return s.mutate(func(st *State) (bool, bool) {
		products := slices.Clone(st.Products)
		if i := indexOfProduct(products, p.ID); i >= 0 {
			products[i] = p
		} else {
			products = append(products, p)
		}
		st.Products = products
		cart, changed := refreshCart(st.Cart, []domain.Product{p})
		st.Cart = cart
		return true, changed
	})
}

// UpdateProduct replaces the product with p's id. Unknown ids are ignored.
func (s *Store) UpdateProduct(p domain.Product) State {
	p = p.Clone()
	return s.mutate(func(st *State) (bool, bool) {
		i := indexOfProduct(st.Products, p.ID)
		if i < 0 {
			return false, false
		}
		products := slices.Clone(st.Products)
		products[i] = p
		st.Products = products
		cart, changed := refreshCart(st.Cart, []domain.Product{p})
		st.Cart = cart
		return true, changed
	})
}

// DeleteProduct removes the product and any cart lines referencing it.
func (s *Store) DeleteProduct(id string) State {
	return s.mutate(func(st *State) (bool, bool) {
		i := indexOfProduct(st.Products, id)
		if i < 0 {
			return false, false
		}
		st.Products = slices.Delete(slices.Clone(st.Products), i, i+1)
		cart := slices.DeleteFunc(slices.Clone(st.Cart), func(it domain.CartItem) bool { return it.Product.ID == id })
		cartChanged := len(cart) != len(st.Cart)
		st.Cart = cart
		return true, cartChanged
	})
}

// SetArchived flips the archive flag of one product and of its cart lines.
func (s *Store) SetArchived(id string, archived bool) State {
	return s.mutate(func(st *State) (bool, bool) {
		i := indexOfProduct(st.Products, id)
		if i < 0 || st.Products[i].IsArchived == archived {
			return false, false
		}
		products := slices.Clone(st.Products)
		products[i] = products[i].Clone()
		products[i].IsArchived = archived
		st.Products = products
		cart, changed := refreshCart(st.Cart, products[i:i+1])
		st.Cart = cart
		return true, changed
	})
}

// CheckExpiredProducts archives every unarchived product whose expiration
// date has passed, carries the flag into cart lines and returns their ids.
// Running it again changes nothing.
func (s *Store) CheckExpiredProducts() (State, []string) {
	now := s.clock.Now()
	var archived []string
	st := s.mutate(func(st *State) (bool, bool) {
		var products, touched []domain.Product
		for i, p := range st.Products {
			if p.IsArchived || !p.IsExpired(now) {
				continue
			}
			if products == nil {
				products = slices.Clone(st.Products)
			}
			products[i] = p.Clone()
			products[i].IsArchived = true
			touched = append(touched, products[i])
			archived = append(archived, p.ID)
		}
		if products == nil {
			return false, false
		}
		st.Products = products
		cart, changed := refreshCart(st.Cart, touched)
		st.Cart = cart
		return true, changed
	})
	if len(archived) > 0 {
		s.logger.Sugar().Infow("archived expired products", "count", len(archived), "ids", archived)
	}
	return st, archived
}

func (s *Store) Product(id string) (domain.Product, bool) {
	st := s.State()
	i := indexOfProduct(st.Products, id)
	if i < 0 {
		return domain.Product{}, false
	}
	return st.Products[i], true
}

func indexOfProduct(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
}

func refreshCart(cart []domain.CartItem, products []domain.Product) ([]domain.CartItem, bool) {
	var out []domain.CartItem
	for i, it := range cart {
		j := indexOfProduct(products, it.Product.ID)
		if j < 0 {
			continue
		}
		if out == nil {
			out = slices.Clone(cart)
		}
		out[i].Product = products[j]
	}
	if out == nil {
		return cart, false
	}
	return out, true
}
