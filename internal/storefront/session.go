// Package storefront wires the store to the backend the way a client view does:
// local mutations apply at once and are then queued for the backend.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pranzo-storefront/internal/cashier"
	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/gateway"
	"pranzo-storefront/internal/pricing"
	"pranzo-storefront/internal/scheduler"
	"pranzo-storefront/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultSweepInterval is how often expired products are archived.
const DefaultSweepInterval = 60 * time.Second

var ErrEmptyCart = errors.New("storefront: cart is empty")

// Backend is what a session needs from the store API.
type Backend interface {
	gateway.Backend
	FetchStore(ctx context.Context) (domain.StoreSnapshot, error)
	CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error)
}

type Session struct {
	store   *store.Store
	backend Backend
	syncer  *gateway.Syncer
	logger  *zap.Logger

	mu       sync.RWMutex
	branches []domain.Branch
}

func NewSession(st *store.Store, backend Backend, syncer *gateway.Syncer, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{store: st, backend: backend, syncer: syncer, logger: logger}
}

func (s *Session) Store() *store.Store { return s.store }

func (s *Session) Branches() []domain.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branches
}

// Load replaces the catalog with the backend snapshot. When the backend is
// unreachable the bundled products are used instead, and the error is returned
// for the caller to report.
func (s *Session) Load(ctx context.Context, bundled []domain.Product) error {
	snap, err := s.backend.FetchStore(ctx)
	if err != nil {
		s.logger.Warn("store load failed, using bundled catalog", zap.Error(err), zap.Int("bundled", len(bundled)))
		if len(s.store.State().Products) == 0 {
			s.store.SetProducts(bundled)
		}
		return fmt.Errorf("load store: %w", err)
	}
	s.store.SetProducts(snap.Products)
	s.mu.Lock()
	s.branches = snap.Branches
	s.mu.Unlock()
	s.logger.Info("store loaded", zap.Int("products", len(snap.Products)), zap.Int("branches", len(snap.Branches)))
	return nil
}

// CreateProduct validates p, adds it locally and queues the backend create.
func (s *Session) CreateProduct(p domain.Product) (domain.Product, gateway.Operation, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == nil {
		now := s.store.Now().UTC()
		p.CreatedAt = &now
	}
	if err := domain.ValidateProduct(p); err != nil {
		return domain.Product{}, gateway.Operation{}, err
	}
	s.store.AddProduct(p)
	return p, s.syncer.Submit(gateway.OpCreate, p), nil
}

// EditProduct validates p, replaces it locally and queues the backend update.
func (s *Session) EditProduct(p domain.Product) (gateway.Operation, error) {
	if err := domain.ValidateProduct(p); err != nil {
		return gateway.Operation{}, err
	}
	if _, ok := s.store.Product(p.ID); !ok {
		return gateway.Operation{}, fmt.Errorf("edit %s: %w", p.ID, domain.ErrNotFound)
	}
	s.store.UpdateProduct(p)
	return s.syncer.Submit(gateway.OpUpdate, p), nil
}

// RemoveProduct deletes locally and queues the backend delete.
func (s *Session) RemoveProduct(id string) gateway.Operation {
	s.store.DeleteProduct(id)
	return s.syncer.Submit(gateway.OpDelete, domain.Product{ID: id})
}

func (s *Session) ArchiveProduct(id string) (gateway.Operation, error) {
	return s.setArchived(id, true)
}

func (s *Session) RestoreProduct(id string) (gateway.Operation, error) {
	return s.setArchived(id, false)
}

func (s *Session) setArchived(id string, archived bool) (gateway.Operation, error) {
	s.store.SetArchived(id, archived)
	p, ok := s.store.Product(id)
	if !ok {
		return gateway.Operation{}, fmt.Errorf("archive %s: %w", id, domain.ErrNotFound)
	}
	return s.syncer.Submit(gateway.OpUpdate, p), nil
}

// Operations exposes the sync records so a view can show failures and offer retry.
func (s *Session) Operations() []gateway.Operation { return s.syncer.Operations() }

func (s *Session) Retry(id string) (gateway.Operation, error) { return s.syncer.Retry(id) }

// CheckoutLine is one priced cart line in a checkout summary.
type CheckoutLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Extra     string          `json:"extra,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Savings   decimal.Decimal `json:"savings"`
}

type CheckoutSummary struct {
	Lines   []CheckoutLine  `json:"lines"`
	Total   decimal.Decimal `json:"total"`
	Savings decimal.Decimal `json:"savings"`
	// Skipped lists products left out because they were archived.
	Skipped []string  `json:"skipped,omitempty"`
	At      time.Time `json:"at"`
}

// Checkout prices the cart, clears it and returns the summary for the
// hand-off message. Lines whose product has been archived are skipped.
func (s *Session) Checkout() (CheckoutSummary, error) {
	now := s.store.Now()
	cart := s.store.State().Cart
	sum := CheckoutSummary{At: now, Total: decimal.Zero, Savings: decimal.Zero}
	for _, it := range cart {
		if it.Product.IsArchived {
			sum.Skipped = append(sum.Skipped, it.Product.ID)
			continue
		}
		sel := pricing.Selection{Size: it.SelectedSize, Extra: it.SelectedExtra}
		line := CheckoutLine{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Size:      it.SelectedSize,
			Extra:     it.SelectedExtra,
			Quantity:  it.Quantity,
			UnitPrice: pricing.UnitTotal(it.Product, sel, now),
			LineTotal: pricing.LineTotal(it.Product, sel, it.Quantity, now),
			Savings:   pricing.SavingsPerUnit(it.Product, now).Mul(decimal.NewFromInt(int64(it.Quantity))),
		}
		sum.Total = sum.Total.Add(line.LineTotal)
		sum.Savings = sum.Savings.Add(line.Savings)
		sum.Lines = append(sum.Lines, line)
	}
	if len(sum.Lines) == 0 {
		return CheckoutSummary{}, ErrEmptyCart
	}
	s.store.ClearCart()
	s.logger.Info("checkout", zap.Int("lines", len(sum.Lines)), zap.String("total", pricing.Format(sum.Total)))
	return sum, nil
}

// SubmitCashierOrder builds the order and waits for the backend to store it.
// Orders are not optimistic: the builder is only reset once the backend accepts.
func (s *Session) SubmitCashierOrder(ctx context.Context, b *cashier.Builder, paid decimal.Decimal) (domain.Order, error) {
	draft, err := b.Build(paid, s.store.Now())
	if err != nil {
		return domain.Order{}, err
	}
	created, err := s.backend.CreateOrder(ctx, draft)
	if err != nil {
		s.logger.Warn("cashier order rejected", zap.Error(err))
		return domain.Order{}, err
	}
	b.Reset()
	return created, nil
}

// ScheduleExpirySweep registers the periodic archive of expired products.
func (s *Session) ScheduleExpirySweep(sched *scheduler.Scheduler, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	sched.Add(scheduler.Task{
		Name:       "client-expiry-sweep",
		Interval:   interval,
		RunOnStart: true,
		Run: func(context.Context, time.Time) {
			s.store.CheckExpiredProducts()
		},
	})
}
