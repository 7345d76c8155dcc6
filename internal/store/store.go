// Package store is the in-memory state container shared by storefront views.
//
// Every mutation is serialized and produces a new State snapshot. Subscribers
// receive snapshots one at a time in Version order, outside the state lock.
// A mutation made while another goroutine is delivering is handed to that
// goroutine, so a listener may mutate the store without deadlocking.
// Snapshots are never modified after they are published; treat the slices
// they carry as read-only.
package store

import (
	"context"
	"sync"
	"time"

	"pranzo-storefront/internal/catalog"
	"pranzo-storefront/internal/domain"
	"pranzo-storefront/internal/pricing"
	"pranzo-storefront/internal/scheduler"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// State is an immutable snapshot of the store.
type State struct {
	Products []domain.Product
	Cart     []domain.CartItem
	Filters  domain.Filter
	// Version increases with every applied mutation.
	Version uint64
}

type Listener func(State)

// KeyFunc maps a cart item to the key that decides whether two adds merge.
type KeyFunc func(domain.CartItem) domain.CartKey

// KeyByVariant merges lines only when product, size and extra all match.
func KeyByVariant(it domain.CartItem) domain.CartKey { return it.Key() }

// KeyByProduct keeps one line per product; its size and extra are fixed
// until the line is removed.
func KeyByProduct(it domain.CartItem) domain.CartKey {
	return domain.CartKey{ProductID: it.Product.ID}
}

type Store struct {
	clock  scheduler.Clock
	mirror CartMirror
	logger *zap.Logger
	keyOf  KeyFunc

	mu        sync.Mutex
	state     State
	listeners map[uint64]Listener
	nextSub   uint64

	pending    []published
	delivering bool

	mirrorMu    sync.Mutex
	mirrorSaved uint64
}

type published struct {
	state       State
	cartChanged bool
}

type Option func(*Store)

func WithClock(c scheduler.Clock) Option { return func(s *Store) { s.clock = c } }

func WithCartMirror(m CartMirror) Option { return func(s *Store) { s.mirror = m } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.logger = l } }

func WithCartKeying(k KeyFunc) Option { return func(s *Store) { s.keyOf = k } }

// New builds an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		clock:     scheduler.SystemClock{},
		logger:    zap.NewNop(),
		keyOf:     KeyByVariant,
		listeners: make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for every future snapshot and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// mutate applies fn to a working copy. fn reports whether anything changed
// and whether the cart was touched; unchanged mutations publish nothing.
func (s *Store) mutate(fn func(st *State) (changed, cartChanged bool)) State {
	s.mu.Lock()
	next := s.state
	changed, cartChanged := fn(&next)
	if !changed {
		cur := s.state
		s.mu.Unlock()
		return cur
	}
	next.Version = s.state.Version + 1
	s.state = next
	s.pending = append(s.pending, published{state: next, cartChanged: cartChanged})
	if s.delivering {
		s.mu.Unlock()
		return next
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()
	return next
}

// deliver drains pending snapshots in order until none are left.
func (s *Store) deliver() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.mu.Unlock()
			return
		}
		batch := s.pending
		s.pending = nil
		listeners := make([]Listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			listeners = append(listeners, l)
		}
		s.mu.Unlock()

		for _, p := range batch {
			if p.cartChanged {
				s.saveCart(p.state)
			}
			for _, l := range listeners {
				l(p.state)
			}
		}
	}
}

// Visible is the customer-facing catalog for the current filters.
func (s *Store) Visible() []domain.Product {
	st := s.State()
	return catalog.Query(st.Products, st.Filters, s.clock.Now())
}

func (s *Store) CartTotal() decimal.Decimal {
	return pricing.CartTotal(s.State().Cart, s.clock.Now())
}

// CartCount is the number of units in the cart.
func (s *Store) CartCount() int {
	n := 0
	for _, it := range s.State().Cart {
		n += it.Quantity
	}
	return n
}

func (s *Store) Now() time.Time { return s.clock.Now() }

// SetFilters replaces the filter object. Callers merge partial updates themselves.
func (s *Store) SetFilters(f domain.Filter) State {
	return s.mutate(func(st *State) (bool, bool) {
		st.Filters = f
		return true, false
	})
}

// Hydrate restores the cart from the mirror. A failing mirror leaves the cart empty.
func (s *Store) Hydrate(ctx context.Context) State {
	if s.mirror == nil {
		return s.State()
	}
	items, err := s.mirror.Load(ctx)
	if err != nil {
		s.logger.Warn("cart mirror load failed", zap.Error(err))
		return s.State()
	}
	return s.mutate(func(st *State) (bool, bool) {
		st.Cart = items
		return true, false
	})
}

func (s *Store) saveCart(st State) {
	if s.mirror == nil {
		return
	}
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	// A newer snapshot may already have been saved by another goroutine.
	if st.Version <= s.mirrorSaved {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.mirror.Save(ctx, st.Cart); err != nil {
		s.logger.Warn("cart mirror save failed", zap.Error(err), zap.Uint64("version", st.Version))
		return
	}
	s.mirrorSaved = st.Version
}

const mirrorTimeout = 3 * time.Second
