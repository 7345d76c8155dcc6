package order

import (
	"context"

	"pranzo-storefront/internal/domain"
)

// Repository stores cashier orders. Orders are immutable once created.
type Repository interface {
	List(ctx context.Context) ([]domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// Create assigns the next sequential order number and, when empty, the order code.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Delete(ctx context.Context, id string) (*domain.Order, error)
	// Clear removes every order and returns how many were dropped.
	Clear(ctx context.Context) (int, error)
}
