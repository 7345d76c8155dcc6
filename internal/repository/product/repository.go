package product

import (
	"context"
	"time"

	"pranzo-storefront/internal/domain"
)

// Repository is the durable home of the catalog and the branch list.
type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// Create fails with domain.ErrAlreadyExists when the id is taken.
	Create(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Update replaces the stored product; domain.ErrNotFound when absent.
	Update(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Upsert creates or replaces by id, keeping the original position and createdAt.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
	// Delete removes the product and returns what was stored.
	Delete(ctx context.Context, id string) (*domain.Product, error)
	// ArchiveExpired archives every unarchived product whose expiration date is
	// at or before now in a single write and returns their ids. Only the
	// archive flag changes; concurrent edits to other fields are kept.
	ArchiveExpired(ctx context.Context, now time.Time) ([]string, error)
	// ReplaceAll swaps the whole collection.
	ReplaceAll(ctx context.Context, products []domain.Product) error
	Branches(ctx context.Context) ([]domain.Branch, error)
	ReplaceBranches(ctx context.Context, branches []domain.Branch) error
}
