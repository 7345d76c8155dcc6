package product

import (
	"context"
	"fmt"
	"time"

	"pranzo-storefront/internal/catalog"
	"pranzo-storefront/internal/domain"
	productrepo "pranzo-storefront/internal/repository/product"

	"github.com/google/uuid"
)

type Service struct {
	repo productrepo.Repository
	now  func() time.Time
}

type Option func(*Service)

// WithNow overrides the clock used for createdAt and expiry checks.
func WithNow(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(repo productrepo.Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns every product and branch, archived products included.
func (s *Service) Snapshot(ctx context.Context) (domain.StoreSnapshot, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return domain.StoreSnapshot{}, err
	}
	branches, err := s.repo.Branches(ctx)
	if err != nil {
		return domain.StoreSnapshot{}, err
	}
	return domain.StoreSnapshot{Products: products, Branches: branches}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Query filters and sorts the catalog. Admin queries may include archived products.
func (s *Service) Query(ctx context.Context, f domain.Filter, admin bool) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if admin {
		return catalog.QueryAdmin(products, f, s.now()), nil
	}
	return catalog.Query(products, f, s.now()), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates p, assigning an id and createdAt when missing.
func (s *Service) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == nil {
		now := s.now().UTC()
		p.CreatedAt = &now
	}
	if err := domain.ValidateProduct(p); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Update replaces the product stored under id. The path id wins over the body.
func (s *Service) Update(ctx context.Context, id string, p domain.Product) (*domain.Product, error) {
	p.ID = id
	if err := domain.ValidateProduct(p); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Delete(ctx, id)
}

// ReplaceAll validates every product before swapping the collection.
func (s *Service) ReplaceAll(ctx context.Context, products []domain.Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if err := domain.ValidateProduct(p); err != nil {
			return fmt.Errorf("products[%d]: %w", i, err)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("products[%d]: duplicate id %s: %w", i, p.ID, domain.ErrValidation)
		}
		seen[p.ID] = struct{}{}
	}
	return s.repo.ReplaceAll(ctx, products)
}

// ArchiveExpired archives products whose expiration date has passed and
// returns their ids. Products already archived are left alone.
func (s *Service) ArchiveExpired(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := s.repo.ArchiveExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("archive expired: %w", err)
	}
	return ids, nil
}
