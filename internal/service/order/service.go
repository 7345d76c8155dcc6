package order

import (
	"context"
	"time"

	"pranzo-storefront/internal/domain"
	orderrepo "pranzo-storefront/internal/repository/order"

	"github.com/google/uuid"
)

type Service struct {
	repo orderrepo.Repository
	now  func() time.Time
}

func New(repo orderrepo.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// Submit validates and stores a cashier order. The repository assigns the
// order number; id, change and createdAt are filled in here.
func (s *Service) Submit(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	o.OrderNumber = 0
	o.Change = o.Paid.Sub(o.TotalAmount)
	if err := domain.ValidateOrder(o); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, o)
}

func (s *Service) Delete(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Clear(ctx context.Context) (int, error) {
	return s.repo.Clear(ctx)
}
