// Package memory is the in-process storage backend. Transactions buffer their
// writes and lock entities lazily; the buffer is applied under the store's
// write lock at commit, so readers observe all of a transaction or none of it.
package memory

import (
	"context"
	"sync"
	"time"

	"almoxarife/internal/domain"
	apperrors "almoxarife/internal/errors"
	"almoxarife/internal/store"
)

type orderKey struct {
	kind domain.OrderKind
	id   string
}

type seqKey struct {
	kind domain.OrderKind
	year int
}

type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

type Store struct {
	mu            sync.RWMutex
	products      map[string]*domain.Product
	productIDs    []string
	orders        map[orderKey]*domain.Order
	orderKeys     []orderKey
	notifications []domain.Notification // newest first
	sequences     map[seqKey]int

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	now func() time.Time
}

var _ store.Backend = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{
		products:  make(map[string]*domain.Product),
		orders:    make(map[orderKey]*domain.Order),
		sequences: make(map[seqKey]int),
		locks:     make(map[string]chan struct{}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// entityLock returns the lock for key, creating it on first use. A lock is a
// one-slot channel so that waiting on it can be abandoned with the context.
func (s *Store) entityLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[key] = l
	}
	return l
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	t := newTx(s)
	defer t.release()

	if err := fn(ctx, t.repositories()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.commit()
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productIDs))
	for _, id := range s.productIDs {
		products = append(products, *s.products[id])
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, apperrors.NewProductNotFoundError(productID)
	}
	cp := *p
	return &cp, nil
}

// ListOrders returns the orders of kind, newest first.
func (s *Store) ListOrders(ctx context.Context, kind domain.OrderKind) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.ordersOfKind(kind), nil
}

func (s *Store) ordersOfKind(kind domain.OrderKind) []domain.Order {
	orders := make([]domain.Order, 0)
	for i := len(s.orderKeys) - 1; i >= 0; i-- {
		k := s.orderKeys[i]
		if k.kind == kind {
			orders = append(orders, s.orders[k].Clone())
		}
	}
	return orders
}

func (s *Store) GetOrder(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[orderKey{kind: kind, id: orderID}]
	if !ok {
		return nil, apperrors.NewOrderNotFoundError(string(kind), orderID)
	}
	cp := o.Clone()
	return &cp, nil
}

func (s *Store) ProductHistory(ctx context.Context, productID string) (*domain.Product, []domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, nil, apperrors.NewProductNotFoundError(productID)
	}
	product := *p

	orders := make([]domain.Order, 0)
	for _, k := range s.orderKeys {
		o := s.orders[k]
		if o.References(productID) {
			orders = append(orders, o.Clone())
		}
	}
	return &product, orders, nil
}

func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.productIDs))
	for _, id := range s.productIDs {
		products = append(products, *s.products[id])
	}

	return &domain.Snapshot{
		Products:       products,
		SalesOrders:    s.ordersOfKind(domain.OrderKindSales),
		PurchaseOrders: s.ordersOfKind(domain.OrderKindPurchase),
	}, nil
}

func (s *Store) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	marked := 0
	for i := range s.notifications {
		if !s.notifications[i].Read {
			s.notifications[i].Read = true
			marked++
		}
	}
	return marked, nil
}

func (s *Store) RegisterProduct(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[product.ID]; exists {
		return apperrors.NewConflictError("PRODUCT_EXISTS", "product "+product.ID+" already exists")
	}
	for _, p := range s.products {
		if p.Code == product.Code {
			return apperrors.NewConflictError("PRODUCT_CODE_EXISTS", "product code "+product.Code+" already in use")
		}
	}

	now := s.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	s.products[product.ID] = &product
	s.productIDs = append(s.productIDs, product.ID)
	return nil
}

// RemoveProduct waits for any transaction holding the product before deleting it.
func (s *Store) RemoveProduct(ctx context.Context, productID string) error {
	t := newTx(s)
	defer t.release()

	if err := t.acquire(ctx, productLockKey(productID)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return apperrors.NewProductNotFoundError(productID)
	}
	delete(s.products, productID)
	for i, id := range s.productIDs {
		if id == productID {
			s.productIDs = append(s.productIDs[:i], s.productIDs[i+1:]...)
			break
		}
	}
	return nil
}
