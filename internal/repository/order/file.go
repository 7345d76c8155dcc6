package order

import (
	"context"
	"fmt"
	"slices"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/filestore"

	"go.uber.org/zap"
)

type fileRepo struct {
	doc    *filestore.Document[domain.OrdersDocument]
	logger *zap.Logger
}

func NewFile(doc *filestore.Document[domain.OrdersDocument], logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fileRepo{doc: doc, logger: logger}
}

func (r *fileRepo) List(ctx context.Context) ([]domain.Order, error) {
	doc, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	if doc.Orders == nil {
		return []domain.Order{}, nil
	}
	return doc.Orders, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	doc, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Orders, id)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	o := doc.Orders[i]
	return &o, nil
}

func (r *fileRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	_, err := r.doc.Update(ctx, func(doc *domain.OrdersDocument) error {
		if indexOf(doc.Orders, o.ID) >= 0 {
			return fmt.Errorf("order %s: %w", o.ID, domain.ErrAlreadyExists)
		}
		next := 1
		for _, existing := range doc.Orders {
			if existing.OrderNumber >= next {
				next = existing.OrderNumber + 1
			}
		}
		o.OrderNumber = next
		if o.OrderCode == "" {
			o.OrderCode = domain.FormatOrderCode(next, o.ID)
		}
		doc.Orders = append(doc.Orders, o)
		return nil
	})
	if err != nil {
		r.logger.Warn("order repo: create", zap.String("id", o.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("order repo: created", zap.String("id", o.ID), zap.Int("order_number", o.OrderNumber))
	return &o, nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) (*domain.Order, error) {
	var removed domain.Order
	_, err := r.doc.Update(ctx, func(doc *domain.OrdersDocument) error {
		i := indexOf(doc.Orders, id)
		if i < 0 {
			return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		removed = doc.Orders[i]
		doc.Orders = slices.Delete(doc.Orders, i, i+1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.logger.Info("order repo: deleted", zap.String("id", id))
	return &removed, nil
}

func (r *fileRepo) Clear(ctx context.Context) (int, error) {
	var n int
	_, err := r.doc.Update(ctx, func(doc *domain.OrdersDocument) error {
		n = len(doc.Orders)
		doc.Orders = []domain.Order{}
		return nil
	})
	if err != nil {
		return 0, err
	}
	r.logger.Info("order repo: cleared", zap.Int("count", n))
	return n, nil
}

func indexOf(orders []domain.Order, id string) int {
	return slices.IndexFunc(orders, func(o domain.Order) bool { return o.ID == id })
}
