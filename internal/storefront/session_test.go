package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pranzo-storefront/internal/cashier"
	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/gateway"
	"pranzo-storefront/internal/scheduler"
	"pranzo-storefront/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type stubBackend struct {
	mu        sync.Mutex
	snapshot  domain.StoreSnapshot
	fetchErr  error
	writeErr  error
	orderErr  error
	writes    []string
	lastOrder domain.Order
}

func (b *stubBackend) FetchStore(context.Context) (domain.StoreSnapshot, error) {
	return b.snapshot, b.fetchErr
}

func (b *stubBackend) write(call string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, call)
	return b.writeErr
}

func (b *stubBackend) CreateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	return p, b.write("create " + p.ID)
}

func (b *stubBackend) UpdateProduct(_ context.Context, p domain.Product) (domain.Product, error) {
	return p, b.write("update " + p.ID)
}

func (b *stubBackend) DeleteProduct(_ context.Context, id string) (domain.Product, error) {
	return domain.Product{ID: id}, b.write("delete " + id)
}

func (b *stubBackend) CreateOrder(_ context.Context, o domain.Order) (domain.Order, error) {
	b.lastOrder = o
	o.OrderNumber = 7
	return o, b.orderErr
}

func newSession(t *testing.T, backend *stubBackend, clock scheduler.Clock) *Session {
	t.Helper()
	syncer := gateway.NewSyncer(context.Background(), backend)
	t.Cleanup(syncer.Close)
	return NewSession(store.New(store.WithClock(clock)), backend, syncer, nil)
}

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "P " + id, Category: "c", Price: decimal.NewFromInt(price)}
}

func TestLoad(t *testing.T) {
	backend := &stubBackend{snapshot: domain.StoreSnapshot{
		Products: []domain.Product{product("a", 1)},
		Branches: []domain.Branch{{ID: "b1", Name: "Main"}},
	}}
	s := newSession(t, backend, scheduler.NewManualClock(start))

	require.NoError(t, s.Load(context.Background(), nil))
	assert.Len(t, s.Store().State().Products, 1)
	assert.Equal(t, "Main", s.Branches()[0].Name)
}

func TestLoad_FallsBackToBundled(t *testing.T) {
	backend := &stubBackend{fetchErr: errors.New("offline")}
	s := newSession(t, backend, scheduler.NewManualClock(start))

	err := s.Load(context.Background(), []domain.Product{product("seed", 1)})
	assert.Error(t, err)
	assert.Equal(t, "seed", s.Store().State().Products[0].ID)
}

func TestProductMutationsAreOptimistic(t *testing.T) {
	backend := &stubBackend{writeErr: errors.New("backend down")}
	s := newSession(t, backend, scheduler.NewManualClock(start))

	created, op, err := s.CreateProduct(product("", 10))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, gateway.StatusPending, op.Status)

	// local state already has it, before and regardless of the backend
	_, ok := s.Store().Product(created.ID)
	assert.True(t, ok)

	edited := created
	edited.Name = "Edited"
	_, err = s.EditProduct(edited)
	require.NoError(t, err)
	s.syncer.Wait()

	p, _ := s.Store().Product(created.ID)
	assert.Equal(t, "Edited", p.Name, "failed sync never rolls back")

	ops := s.Operations()
	require.Len(t, ops, 2)
	for _, o := range ops {
		assert.Equal(t, gateway.StatusFailed, o.Status)
	}

	backend.mu.Lock()
	backend.writeErr = nil
	backend.mu.Unlock()
	_, err = s.Retry(ops[0].ID)
	require.NoError(t, err)
	s.syncer.Wait()
	got, _ := s.syncer.Get(ops[0].ID)
	assert.Equal(t, gateway.StatusCommitted, got.Status)
}

func TestEditProduct_Validation(t *testing.T) {
	s := newSession(t, &stubBackend{}, scheduler.NewManualClock(start))

	bad := product("x", 1)
	bad.Name = ""
	_, err := s.EditProduct(bad)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.EditProduct(product("unknown", 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, s.Operations())
}

func TestRemoveAndArchive(t *testing.T) {
	backend := &stubBackend{}
	s := newSession(t, backend, scheduler.NewManualClock(start))
	s.Store().SetProducts([]domain.Product{product("a", 1), product("b", 2)})

	_, err := s.ArchiveProduct("a")
	require.NoError(t, err)
	p, _ := s.Store().Product("a")
	assert.True(t, p.IsArchived)

	_, err = s.RestoreProduct("a")
	require.NoError(t, err)
	s.RemoveProduct("b")
	s.syncer.Wait()

	assert.Len(t, s.Store().State().Products, 1)
	assert.Equal(t, []string{"update a", "update a", "delete b"}, backend.writes)

	_, err = s.ArchiveProduct("b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCheckout(t *testing.T) {
	s := newSession(t, &stubBackend{}, scheduler.NewManualClock(start))
	_, err := s.Checkout()
	assert.ErrorIs(t, err, ErrEmptyCart)

	ends := start.Add(time.Hour)
	discount := decimal.NewFromInt(20)
	offer := product("p1", 100)
	offer.SpecialOffer, offer.DiscountPercentage, offer.OfferEndsAt = true, &discount, &ends
	s.Store().AddToCart(offer, 2, "", "")

	sum, err := s.Checkout()
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(160).Equal(sum.Total))
	assert.True(t, decimal.NewFromInt(80).Equal(sum.Lines[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(40).Equal(sum.Savings))
	assert.Empty(t, s.Store().State().Cart)
}

func TestCheckout_SkipsArchivedLines(t *testing.T) {
	s := newSession(t, &stubBackend{}, scheduler.NewManualClock(start))
	s.Store().SetProducts([]domain.Product{product("keep", 10), product("gone", 5)})
	keep, _ := s.Store().Product("keep")
	gone, _ := s.Store().Product("gone")
	s.Store().AddToCart(keep, 1, "", "")
	s.Store().AddToCart(gone, 3, "", "")

	_, err := s.ArchiveProduct("gone")
	require.NoError(t, err)
	assert.True(t, s.Store().State().Cart[1].Product.IsArchived)

	sum, err := s.Checkout()
	require.NoError(t, err)
	require.Len(t, sum.Lines, 1)
	assert.Equal(t, "keep", sum.Lines[0].ProductID)
	assert.Equal(t, []string{"gone"}, sum.Skipped)
	assert.True(t, decimal.NewFromInt(10).Equal(sum.Total))
}

func TestCheckout_OnlyArchivedIsEmpty(t *testing.T) {
	s := newSession(t, &stubBackend{}, scheduler.NewManualClock(start))
	p := product("gone", 5)
	s.Store().SetProducts([]domain.Product{p})
	s.Store().AddToCart(p, 1, "", "")
	s.Store().SetArchived("gone", true)

	_, err := s.Checkout()
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, s.Store().State().Cart, 1, "cart kept when nothing can be checked out")
}

func TestSubmitCashierOrder(t *testing.T) {
	backend := &stubBackend{}
	s := newSession(t, backend, scheduler.NewManualClock(start))
	b := cashier.NewBuilder()
	b.Add(product("p1", 25), 2, "", "")

	o, err := s.SubmitCashierOrder(context.Background(), b, decimal.NewFromInt(60))
	require.NoError(t, err)
	assert.Equal(t, 7, o.OrderNumber)
	assert.True(t, decimal.NewFromInt(10).Equal(backend.lastOrder.Change))
	assert.True(t, b.Empty())

	backend.orderErr = errors.New("offline")
	b.Add(product("p1", 25), 1, "", "")
	_, err = s.SubmitCashierOrder(context.Background(), b, decimal.NewFromInt(60))
	assert.Error(t, err)
	assert.False(t, b.Empty(), "builder kept for another attempt")
}

func TestScheduleExpirySweep(t *testing.T) {
	clock := scheduler.NewManualClock(start)
	s := newSession(t, &stubBackend{}, clock)
	expires := start.Add(90 * time.Second)
	p := product("milk", 3)
	p.ExpirationDate = &expires
	s.Store().SetProducts([]domain.Product{p})

	archived := make(chan struct{}, 1)
	s.Store().Subscribe(func(st store.State) {
		if st.Products[0].IsArchived {
			select {
			case archived <- struct{}{}:
			default:
			}
		}
	})

	sched := scheduler.New(clock, nil)
	s.ScheduleExpirySweep(sched, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		sched.Wait()
	}()
	sched.Start(ctx)

	clock.Advance(DefaultSweepInterval)
	clock.Advance(DefaultSweepInterval)
	select {
	case <-archived:
	case <-time.After(2 * time.Second):
		t.Fatalf("expired product was not archived")
	}
	assert.Empty(t, s.Store().Visible())
}
