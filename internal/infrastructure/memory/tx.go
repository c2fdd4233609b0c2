package memory

import (
	"context"
	"fmt"

	"almoxarife/internal/domain"
	apperrors "almoxarife/internal/errors"
	"almoxarife/internal/store"
)

func productLockKey(id string) string {
	return "product:" + id
}

func orderLockKey(k orderKey) string {
	return fmt.Sprintf("order:%s:%s", k.kind, k.id)
}

func seqLockKey(k seqKey) string {
	return fmt.Sprintf("seq:%s:%d", k.kind, k.year)
}

type tx struct {
	store *Store

	held     []chan struct{}
	heldKeys map[string]bool

	stock         map[string]int
	statuses      map[orderKey]domain.OrderStatus
	inserted      map[orderKey]domain.Order
	insertOrder   []orderKey
	notifications []domain.Notification
	sequences     map[seqKey]int
}

func newTx(s *Store) *tx {
	return &tx{
		store:     s,
		heldKeys:  make(map[string]bool),
		stock:     make(map[string]int),
		statuses:  make(map[orderKey]domain.OrderStatus),
		inserted:  make(map[orderKey]domain.Order),
		sequences: make(map[seqKey]int),
	}
}

func (t *tx) repositories() store.Repositories {
	return store.Repositories{
		Products:      &productRepository{tx: t},
		Orders:        &orderRepository{tx: t},
		Notifications: &notificationRepository{tx: t},
	}
}

// acquire takes the lock for key unless this transaction already holds it.
func (t *tx) acquire(ctx context.Context, key string) error {
	if t.heldKeys[key] {
		return nil
	}

	l := t.store.entityLock(key)
	select {
	case l <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.held = append(t.held, l)
	t.heldKeys[key] = true
	return nil
}

func (t *tx) release() {
	for i := len(t.held) - 1; i >= 0; i-- {
		<-t.held[i]
	}
	t.held = nil
	t.heldKeys = make(map[string]bool)
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	for id, stock := range t.stock {
		if p, ok := s.products[id]; ok {
			p.Stock = stock
			p.UpdatedAt = now
		}
	}

	for _, k := range t.insertOrder {
		o := t.inserted[k].Clone()
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		o.UpdatedAt = now
		s.orders[k] = &o
		s.orderKeys = append(s.orderKeys, k)
	}

	for k, status := range t.statuses {
		if o, ok := s.orders[k]; ok {
			o.Status = status
			o.UpdatedAt = now
		}
	}

	for k, v := range t.sequences {
		s.sequences[k] = v
	}

	if len(t.notifications) > 0 {
		feed := make([]domain.Notification, 0, len(t.notifications)+len(s.notifications))
		for i := len(t.notifications) - 1; i >= 0; i-- {
			feed = append(feed, t.notifications[i])
		}
		s.notifications = append(feed, s.notifications...)
	}
}

type productRepository struct {
	tx *tx
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, productID string) (*domain.Product, error) {
	if err := r.tx.acquire(ctx, productLockKey(productID)); err != nil {
		return nil, err
	}

	s := r.tx.store
	s.mu.RLock()
	p, ok := s.products[productID]
	var cp domain.Product
	if ok {
		cp = *p
	}
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewProductNotFoundError(productID)
	}
	if pending, ok := r.tx.stock[productID]; ok {
		cp.Stock = pending
	}
	return &cp, nil
}

func (r *productRepository) AdjustStock(ctx context.Context, productID string, delta int) (int, int, error) {
	p, err := r.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return 0, 0, err
	}

	before := p.Stock
	after := before + delta
	r.tx.stock[productID] = after
	return before, after, nil
}

type orderRepository struct {
	tx *tx
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error) {
	k := orderKey{kind: kind, id: orderID}
	if err := r.tx.acquire(ctx, orderLockKey(k)); err != nil {
		return nil, err
	}

	if o, ok := r.tx.inserted[k]; ok {
		cp := o.Clone()
		return &cp, nil
	}

	s := r.tx.store
	s.mu.RLock()
	o, ok := s.orders[k]
	var cp domain.Order
	if ok {
		cp = o.Clone()
	}
	s.mu.RUnlock()

	if !ok {
		return nil, apperrors.NewOrderNotFoundError(string(kind), orderID)
	}
	if status, ok := r.tx.statuses[k]; ok {
		cp.Status = status
	}
	return &cp, nil
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) error {
	k := orderKey{kind: order.Kind, id: order.ID}
	if _, ok := r.tx.inserted[k]; ok {
		return apperrors.NewConflictError("ORDER_EXISTS", "order "+order.ID+" already exists")
	}

	s := r.tx.store
	s.mu.RLock()
	_, exists := s.orders[k]
	s.mu.RUnlock()
	if exists {
		return apperrors.NewConflictError("ORDER_EXISTS", "order "+order.ID+" already exists")
	}

	r.tx.inserted[k] = order.Clone()
	r.tx.insertOrder = append(r.tx.insertOrder, k)
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, kind domain.OrderKind, orderID string, status domain.OrderStatus) error {
	k := orderKey{kind: kind, id: orderID}
	if o, ok := r.tx.inserted[k]; ok {
		o.Status = status
		r.tx.inserted[k] = o
		return nil
	}

	s := r.tx.store
	s.mu.RLock()
	_, exists := s.orders[k]
	s.mu.RUnlock()
	if !exists {
		return apperrors.NewOrderNotFoundError(string(kind), orderID)
	}

	r.tx.statuses[k] = status
	return nil
}

func (r *orderRepository) NextSequence(ctx context.Context, kind domain.OrderKind, year int) (int, error) {
	k := seqKey{kind: kind, year: year}
	if err := r.tx.acquire(ctx, seqLockKey(k)); err != nil {
		return 0, err
	}

	current, ok := r.tx.sequences[k]
	if !ok {
		s := r.tx.store
		s.mu.RLock()
		current = s.sequences[k]
		s.mu.RUnlock()
	}

	next := current + 1
	r.tx.sequences[k] = next
	return next, nil
}

type notificationRepository struct {
	tx *tx
}

func (r *notificationRepository) Insert(ctx context.Context, notification domain.Notification) error {
	r.tx.notifications = append(r.tx.notifications, notification)
	return nil
}
