package gateway

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"pranzo-storefront/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

type OpStatus string

const (
	StatusPending   OpStatus = "pending"
	StatusCommitted OpStatus = "committed"
	StatusFailed    OpStatus = "failed"
)

// ErrUnknownOperation is returned by Retry for ids the syncer never saw.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation records one local mutation and how far it got towards the backend.
type Operation struct {
	ID        string          `json:"id"`
	Kind      OpKind          `json:"kind"`
	ProductID string          `json:"productId"`
	Product   *domain.Product `json:"product,omitempty"`
	Status    OpStatus        `json:"status"`
	Attempts  int             `json:"attempts"`
	Err       string          `json:"error,omitempty"`
	NotFound  bool            `json:"notFound,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Backend is the subset of Client the syncer needs.
type Backend interface {
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) (domain.Product, error)
}

// Syncer sends product mutations to the backend in submission order on a
// single worker goroutine. Submit never blocks on the network, and a failed
// operation is only recorded and logged; local state is never rolled back.
type Syncer struct {
	backend  Backend
	logger   *zap.Logger
	now      func() time.Time
	onChange func(Operation)

	mu     sync.Mutex
	ops    map[string]*Operation
	order  []string
	queue  []string
	closed bool

	wake     chan struct{}
	inflight sync.WaitGroup
	cancel   context.CancelFunc
	done     chan struct{}
}

type SyncerOption func(*Syncer)

func WithSyncLogger(l *zap.Logger) SyncerOption { return func(s *Syncer) { s.logger = l } }

// WithNow sets the timestamp source for operation records.
func WithNow(now func() time.Time) SyncerOption { return func(s *Syncer) { s.now = now } }

// OnChange is called after every status transition, from the worker goroutine.
func OnChange(fn func(Operation)) SyncerOption { return func(s *Syncer) { s.onChange = fn } }

// NewSyncer starts the worker. It stops when ctx is cancelled or Close is called.
func NewSyncer(ctx context.Context, backend Backend, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		backend: backend,
		logger:  zap.NewNop(),
		now:     time.Now,
		ops:     make(map[string]*Operation),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
	return s
}

// Submit records a pending operation and queues it. For deletes only the id is used.
func (s *Syncer) Submit(kind OpKind, p domain.Product) Operation {
	now := s.now()
	op := &Operation{
		ID:        uuid.NewString(),
		Kind:      kind,
		ProductID: p.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind != OpDelete {
		c := p.Clone()
		op.Product = &c
	}

	s.mu.Lock()
	s.ops[op.ID] = op
	s.order = append(s.order, op.ID)
	snapshot := *op
	s.mu.Unlock()

	s.enqueue(op.ID)
	return snapshot
}

// Retry re-queues a failed operation.
func (s *Syncer) Retry(id string) (Operation, error) {
	s.mu.Lock()
	op, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return Operation{}, fmt.Errorf("retry %s: %w", id, ErrUnknownOperation)
	}
	if op.Status != StatusFailed {
		snapshot := *op
		s.mu.Unlock()
		return snapshot, fmt.Errorf("retry %s: operation is %s", id, op.Status)
	}
	op.Status = StatusPending
	op.Err = ""
	op.NotFound = false
	op.UpdatedAt = s.now()
	snapshot := *op
	s.mu.Unlock()

	s.enqueue(id)
	return snapshot, nil
}

// Operations lists every recorded operation in submission order.
func (s *Syncer) Operations() []Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Operation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.ops[id])
	}
	return out
}

// Failed lists operations waiting for a retry.
func (s *Syncer) Failed() []Operation {
	return slices.DeleteFunc(s.Operations(), func(op Operation) bool { return op.Status != StatusFailed })
}

// Get returns one operation by id.
func (s *Syncer) Get(id string) (Operation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// PruneCommitted forgets committed operations and returns how many were dropped.
func (s *Syncer) PruneCommitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.order = slices.DeleteFunc(s.order, func(id string) bool {
		if s.ops[id].Status == StatusCommitted {
			delete(s.ops, id)
			n++
			return true
		}
		return false
	})
	return n
}

// Wait blocks until every queued operation has been attempted.
func (s *Syncer) Wait() { s.inflight.Wait() }

// Close stops the worker. Operations still queued stay pending.
func (s *Syncer) Close() {
	s.cancel()
	<-s.done
}

func (s *Syncer) enqueue(id string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("syncer closed, operation left pending", zap.String("op", id))
		return
	}
	s.inflight.Add(1)
	s.queue = append(s.queue, id)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Syncer) next() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	return id, true
}

func (s *Syncer) run(ctx context.Context) {
	defer close(s.done)
	defer s.drain()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for {
			if ctx.Err() != nil {
				return
			}
			id, ok := s.next()
			if !ok {
				break
			}
			s.dispatch(ctx, id)
			s.inflight.Done()
		}
	}
}

// drain marks the syncer closed and releases waiters for operations that
// will never be sent. Both happen under mu so no enqueue can slip in between.
func (s *Syncer) drain() {
	s.mu.Lock()
	s.closed = true
	n := len(s.queue)
	s.queue = nil
	s.mu.Unlock()
	for range n {
		s.inflight.Done()
	}
}

func (s *Syncer) dispatch(ctx context.Context, id string) {
	s.mu.Lock()
	op := *s.ops[id]
	s.mu.Unlock()

	var err error
	switch op.Kind {
	case OpCreate:
		_, err = s.backend.CreateProduct(ctx, *op.Product)
	case OpUpdate:
		_, err = s.backend.UpdateProduct(ctx, *op.Product)
	case OpDelete:
		_, err = s.backend.DeleteProduct(ctx, op.ProductID)
	default:
		err = fmt.Errorf("unsupported operation kind %q", op.Kind)
	}

	s.mu.Lock()
	rec, ok := s.ops[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	rec.Attempts++
	rec.UpdatedAt = s.now()
	if err != nil {
		rec.Status = StatusFailed
		rec.Err = err.Error()
		rec.NotFound = errors.Is(err, domain.ErrNotFound)
	} else {
		rec.Status = StatusCommitted
	}
	snapshot := *rec
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("product sync failed, keeping local state",
			zap.String("op", snapshot.ID),
			zap.String("kind", string(snapshot.Kind)),
			zap.String("product_id", snapshot.ProductID),
			zap.Int("attempts", snapshot.Attempts),
			zap.Error(err),
		)
	} else {
		s.logger.Debug("product sync committed",
			zap.String("op", snapshot.ID),
			zap.String("kind", string(snapshot.Kind)),
			zap.String("product_id", snapshot.ProductID),
		)
	}
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}
