package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/scheduler"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func product(id, price string) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Category: "c", Price: decimal.RequireFromString(price)}
}

func TestAddToCart_RoundTripToEmpty(t *testing.T) {
	s := New()
	p := product("p1", "10")

	s.AddToCart(p, 1, "", "")
	st := s.AddToCart(p, -1, "", "")
	assert.Empty(t, st.Cart)
}

func TestAddToCart_MergesSameVariant(t *testing.T) {
	s := New()
	p := product("p1", "10")

	s.AddToCart(p, 2, "L", "")
	st := s.AddToCart(p, 3, "L", "")
	require.Len(t, st.Cart, 1)
	assert.Equal(t, 5, st.Cart[0].Quantity)
}

func TestAddToCart_VariantsAreSeparateLines(t *testing.T) {
	s := New()
	p := product("p1", "10")

	s.AddToCart(p, 1, "M", "")
	s.AddToCart(p, 1, "L", "")
	st := s.AddToCart(p, 1, "L", "Cheese")
	assert.Len(t, st.Cart, 3)

	st = s.RemoveCartLine(domain.CartKey{ProductID: "p1", Size: "L"})
	require.Len(t, st.Cart, 2)
	assert.Equal(t, "M", st.Cart[0].SelectedSize)
	assert.Equal(t, "Cheese", st.Cart[1].SelectedExtra)

	st = s.RemoveFromCart("p1")
	assert.Empty(t, st.Cart)
}

func TestAddToCart_KeyByProductKeepsFirstSelection(t *testing.T) {
	s := New(WithCartKeying(KeyByProduct))
	p := product("p1", "10")

	s.AddToCart(p, 1, "M", "")
	st := s.AddToCart(p, 1, "L", "")
	require.Len(t, st.Cart, 1)
	assert.Equal(t, 2, st.Cart[0].Quantity)
	assert.Equal(t, "M", st.Cart[0].SelectedSize)

	// removing and re-adding is the only way to change the selection
	s.AddToCart(p, -2, "", "")
	st = s.AddToCart(p, 1, "L", "")
	assert.Equal(t, "L", st.Cart[0].SelectedSize)
}

func TestAddToCart_NegativeDeltaOnMissingLineIsNoop(t *testing.T) {
	s := New()
	before := s.State()
	st := s.AddToCart(product("p1", "1"), -3, "", "")
	assert.Empty(t, st.Cart)
	assert.Equal(t, before.Version, st.Version)
}

func TestUpdateCartItemQuantity(t *testing.T) {
	s := New()
	p := product("p1", "10")
	for _, prior := range []int{1, 7, 100} {
		s.AddToCart(p, prior, "", "")
		st := s.UpdateCartItemQuantity(domain.CartKey{ProductID: "p1"}, 0)
		assert.Empty(t, st.Cart, "prior quantity %d", prior)
	}

	s.AddToCart(p, 1, "S", "")
	st := s.UpdateCartItemQuantity(domain.CartKey{ProductID: "p1", Size: "S"}, 4)
	assert.Equal(t, 4, st.Cart[0].Quantity)

	st = s.UpdateCartItemQuantity(domain.CartKey{ProductID: "p1", Size: "S"}, -1)
	assert.Empty(t, st.Cart)
}

func TestCartTotalsAndClear(t *testing.T) {
	s := New()
	sized := product("p1", "50")
	sized.SizesWithPrices = []domain.SizePrice{{Size: "L", Price: decimal.NewFromInt(10)}}
	s.AddToCart(sized, 3, "L", "")
	s.AddToCart(product("p2", "5"), 2, "", "")

	assert.True(t, decimal.NewFromInt(190).Equal(s.CartTotal()))
	assert.Equal(t, 5, s.CartCount())

	st := s.ClearCart()
	assert.Empty(t, st.Cart)
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := New()
	first := s.AddToCart(product("p1", "1"), 1, "", "")
	s.AddToCart(product("p1", "1"), 1, "", "")
	s.AddToCart(product("p2", "1"), 1, "", "")

	require.Len(t, first.Cart, 1)
	assert.Equal(t, 1, first.Cart[0].Quantity)
	assert.Less(t, first.Version, s.State().Version)
}

func TestProductsLifecycle(t *testing.T) {
	s := New()
	s.SetProducts([]domain.Product{product("a", "1"), product("b", "2")})
	s.AddToCart(product("a", "1"), 1, "", "")

	st := s.AddProduct(product("c", "3"))
	assert.Len(t, st.Products, 3)

	updated := product("a", "9")
	updated.Name = "Renamed"
	st = s.UpdateProduct(updated)
	assert.Equal(t, "Renamed", st.Products[0].Name)
	assert.Equal(t, "Renamed", st.Cart[0].Product.Name, "cart lines follow product edits")

	before := st.Version
	st = s.UpdateProduct(product("zzz", "1"))
	assert.Equal(t, before, st.Version)

	st = s.SetArchived("b", true)
	assert.True(t, st.Products[1].IsArchived)

	st = s.DeleteProduct("a")
	assert.Len(t, st.Products, 2)
	assert.Empty(t, st.Cart)

	_, ok := s.Product("a")
	assert.False(t, ok)
}

func TestVisibleAppliesFilters(t *testing.T) {
	s := New(WithClock(scheduler.NewManualClock(start)))
	archived := product("x", "1")
	archived.IsArchived = true
	s.SetProducts([]domain.Product{product("a", "30"), product("b", "10"), archived})

	s.SetFilters(domain.Filter{SortBy: domain.SortPriceAsc})
	got := s.Visible()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)

	// full replace: the sort key is gone
	s.SetFilters(domain.Filter{Search: "product"})
	assert.Equal(t, "a", s.Visible()[0].ID)
}

func TestSubscribe(t *testing.T) {
	s := New()
	var seen []uint64
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st.Version) })

	s.AddToCart(product("p1", "1"), 1, "", "")
	s.SetFilters(domain.Filter{Category: "c"})
	unsubscribe()
	unsubscribe()
	s.ClearCart()

	assert.Equal(t, []uint64{1, 2}, seen)
}

func TestSubscribe_SlowListenerSeesMutationsInOrder(t *testing.T) {
	s := New()
	var (
		seen    []State
		entered = make(chan struct{})
		release = make(chan struct{})
		done    = make(chan struct{})
	)
	s.Subscribe(func(st State) {
		seen = append(seen, st)
		if st.Version == 1 {
			close(entered)
			<-release
		}
	})

	go func() {
		defer close(done)
		s.SetFilters(domain.Filter{Category: "a"})
	}()
	<-entered
	latest := s.SetFilters(domain.Filter{Category: "b"})
	close(release)
	<-done

	require.Len(t, seen, 2)
	assert.Equal(t, uint64(1), seen[0].Version)
	assert.Equal(t, uint64(2), seen[1].Version)
	assert.Equal(t, latest.Version, s.State().Version)
	assert.Equal(t, "b", seen[len(seen)-1].Filters.Category)
}

func TestSubscribe_ListenerMayMutate(t *testing.T) {
	s := New()
	var seen []uint64
	s.Subscribe(func(st State) {
		seen = append(seen, st.Version)
		if st.Version == 1 {
			s.SetFilters(domain.Filter{Search: "again"})
		}
	})

	s.SetFilters(domain.Filter{Search: "first"})

	assert.Equal(t, []uint64{1, 2}, seen)
	assert.Equal(t, "again", s.State().Filters.Search)
}

func TestCheckExpiredProducts_Idempotent(t *testing.T) {
	clock := scheduler.NewManualClock(start)
	s := New(WithClock(clock))
	past := start.Add(-time.Hour)
	future := start.Add(time.Hour)
	expiring := product("old", "1")
	expiring.ExpirationDate = &past
	later := product("later", "1")
	later.ExpirationDate = &future
	s.SetProducts([]domain.Product{expiring, later, product("plain", "1")})

	st, ids := s.CheckExpiredProducts()
	assert.Equal(t, []string{"old"}, ids)
	assert.True(t, st.Products[0].IsArchived)
	assert.False(t, st.Products[1].IsArchived)

	again, ids := s.CheckExpiredProducts()
	assert.Empty(t, ids)
	assert.Equal(t, st.Version, again.Version)

	clock.Advance(2 * time.Hour)
	_, ids = s.CheckExpiredProducts()
	assert.Equal(t, []string{"later"}, ids)
}

func TestArchiveFlagReachesCartLines(t *testing.T) {
	clock := scheduler.NewManualClock(start)
	s := New(WithClock(clock))
	ends := start.Add(time.Minute)
	expiring := product("milk", "2")
	expiring.ExpirationDate = &ends
	s.SetProducts([]domain.Product{product("tea", "3"), expiring})
	tea, _ := s.Product("tea")
	milk, _ := s.Product("milk")
	s.AddToCart(tea, 1, "", "")
	s.AddToCart(milk, 1, "", "")

	st := s.SetArchived("tea", true)
	assert.True(t, st.Cart[0].Product.IsArchived)
	st = s.SetArchived("tea", false)
	assert.False(t, st.Cart[0].Product.IsArchived)

	clock.Advance(2 * time.Minute)
	st, ids := s.CheckExpiredProducts()
	assert.Equal(t, []string{"milk"}, ids)
	assert.True(t, st.Cart[1].Product.IsArchived)
	assert.False(t, st.Cart[0].Product.IsArchived)
}

func TestExpirySweepOnScheduler(t *testing.T) {
	clock := scheduler.NewManualClock(start)
	s := New(WithClock(clock))
	ends := start.Add(30 * time.Second)
	p := product("p1", "1")
	p.ExpirationDate = &ends
	s.SetProducts([]domain.Product{p})

	archived := make(chan State, 1)
	s.Subscribe(func(st State) {
		if len(st.Products) == 1 && st.Products[0].IsArchived {
			archived <- st
		}
	})

	sched := scheduler.New(clock, nil)
	sched.Add(scheduler.Task{Name: "expiry", Interval: time.Minute, Run: func(context.Context, time.Time) { s.CheckExpiredProducts() }})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	clock.Advance(time.Minute)
	select {
	case <-archived:
	case <-time.After(2 * time.Second):
		t.Fatalf("product was not archived by the sweep")
	}
}

func TestFileMirror_SaveAndHydrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	mirror, err := NewFileMirror(path, nil)
	require.NoError(t, err)

	s := New(WithCartMirror(mirror))
	s.AddToCart(product("p1", "10"), 2, "L", "")

	reopened, err := NewFileMirror(path, nil)
	require.NoError(t, err)
	fresh := New(WithCartMirror(reopened))
	st := fresh.Hydrate(context.Background())
	require.Len(t, st.Cart, 1)
	assert.Equal(t, 2, st.Cart[0].Quantity)
	assert.Equal(t, "L", st.Cart[0].SelectedSize)
}

func TestRedisMirror_SaveAndHydrate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := New(WithCartMirror(NewRedisMirror(client, "shop", nil)))
	s.AddToCart(product("p1", "10"), 1, "", "")
	s.AddToCart(product("p2", "5"), 3, "", "")

	raw, err := mr.Get(CartKey("shop"))
	require.NoError(t, err)
	assert.Contains(t, raw, `"cart":[`)

	fresh := New(WithCartMirror(NewRedisMirror(client, "shop", nil)))
	st := fresh.Hydrate(context.Background())
	assert.Len(t, st.Cart, 2)

	empty := New(WithCartMirror(NewRedisMirror(client, "other", nil)))
	assert.Empty(t, empty.Hydrate(context.Background()).Cart)
}

type failingMirror struct{ saves int }

func (f *failingMirror) Load(context.Context) ([]domain.CartItem, error) {
	return nil, errors.New("unavailable")
}

func (f *failingMirror) Save(context.Context, []domain.CartItem) error {
	f.saves++
	return errors.New("unavailable")
}

func TestMirrorFailuresDoNotAffectState(t *testing.T) {
	m := &failingMirror{}
	s := New(WithCartMirror(m))
	st := s.AddToCart(product("p1", "1"), 1, "", "")
	assert.Len(t, st.Cart, 1)
	assert.Equal(t, 1, m.saves)

	st = s.Hydrate(context.Background())
	assert.Len(t, st.Cart, 1)

	s.SetFilters(domain.Filter{})
	assert.Equal(t, 1, m.saves, "filters are not mirrored")
}
