package product

import (
	"context"
	"fmt"
	"slices"
	"time"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/filestore"

	"go.uber.org/zap"
)

type fileRepo struct {
	doc    *filestore.Document[domain.StoreSnapshot]
	logger *zap.Logger
}

// NewFile keeps products and branches in one JSON document. Writes are
// serialized by the document, so concurrent requests cannot clobber each other.
func NewFile(doc *filestore.Document[domain.StoreSnapshot], logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fileRepo{doc: doc, logger: logger}
}

func (r *fileRepo) List(ctx context.Context) ([]domain.Product, error) {
	snap, err := r.doc.Read(ctx)
	if err != nil {
		r.logger.Error("product repo: list", zap.Error(err))
		return nil, err
	}
	if snap.Products == nil {
		return []domain.Product{}, nil
	}
	return snap.Products, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	snap, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(snap.Products, id)
	if i < 0 {
		r.logger.Debug("product repo: get not found", zap.String("id", id))
		return nil, domain.ErrNotFound
	}
	p := snap.Products[i]
	return &p, nil
}

func (r *fileRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		if indexOf(snap.Products, p.ID) >= 0 {
			return fmt.Errorf("product %s: %w", p.ID, domain.ErrAlreadyExists)
		}
		snap.Products = append(snap.Products, p)
		return nil
	})
	if err != nil {
		r.logger.Warn("product repo: create", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: created", zap.String("id", p.ID))
	return &p, nil
}

func (r *fileRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		i := indexOf(snap.Products, p.ID)
		if i < 0 {
			return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
		}
		if p.CreatedAt == nil {
			p.CreatedAt = snap.Products[i].CreatedAt
		}
		snap.Products[i] = p
		return nil
	})
	if err != nil {
		r.logger.Warn("product repo: update", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: updated", zap.String("id", p.ID))
	return &p, nil
}

func (r *fileRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		if i := indexOf(snap.Products, p.ID); i >= 0 {
			if p.CreatedAt == nil {
				p.CreatedAt = snap.Products[i].CreatedAt
			}
			snap.Products[i] = p
			return nil
		}
		snap.Products = append(snap.Products, p)
		return nil
	})
	if err != nil {
		r.logger.Warn("product repo: upsert", zap.String("id", p.ID), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) (*domain.Product, error) {
	var removed domain.Product
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		i := indexOf(snap.Products, id)
		if i < 0 {
			return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		removed = snap.Products[i]
		snap.Products = slices.Delete(snap.Products, i, i+1)
		return nil
	})
	if err != nil {
		r.logger.Warn("product repo: delete", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	r.logger.Info("product repo: deleted", zap.String("id", id))
	return &removed, nil
}

func (r *fileRepo) ArchiveExpired(ctx context.Context, now time.Time) ([]string, error) {
	var archived []string
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		for i := range snap.Products {
			p := &snap.Products[i]
			if p.IsArchived || !p.IsExpired(now) {
				continue
			}
			p.IsArchived = true
			archived = append(archived, p.ID)
		}
		return nil
	})
	if err != nil {
		r.logger.Warn("product repo: archive expired", zap.Error(err))
		return nil, err
	}
	if len(archived) > 0 {
		r.logger.Info("product repo: archived expired", zap.Strings("ids", archived))
	}
	return archived, nil
}

func (r *fileRepo) ReplaceAll(ctx context.Context, products []domain.Product) error {
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		snap.Products = products
		return nil
	})
	if err != nil {
		r.logger.Error("product repo: replace all", zap.Error(err))
		return err
	}
	r.logger.Info("product repo: replaced collection", zap.Int("count", len(products)))
	return nil
}

func (r *fileRepo) Branches(ctx context.Context) ([]domain.Branch, error) {
	snap, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Branches == nil {
		return []domain.Branch{}, nil
	}
	return snap.Branches, nil
}

func (r *fileRepo) ReplaceBranches(ctx context.Context, branches []domain.Branch) error {
	_, err := r.doc.Update(ctx, func(snap *domain.StoreSnapshot) error {
		snap.Branches = branches
		return nil
	})
	return err
}

func indexOf(products []domain.Product, id string) int {
	return slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
}
