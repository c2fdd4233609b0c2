// Package store declares the persistence ports shared by the in-memory and
// MySQL backends.
package store

import (
	"context"

	"almoxarife/internal/domain"
)

// ProductRepository is bound to one transaction. FindByIDForUpdate takes the
// product's lock for the rest of the transaction.
type ProductRepository interface {
	FindByIDForUpdate(ctx context.Context, productID string) (*domain.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (before, after int, err error)
}

type OrderRepository interface {
	FindByIDForUpdate(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error)
	Insert(ctx context.Context, order domain.Order) error
	UpdateStatus(ctx context.Context, kind domain.OrderKind, orderID string, status domain.OrderStatus) error
	// NextSequence returns the next document number for (kind, year). It never
	// hands out the same value twice, even after deletions.
	NextSequence(ctx context.Context, kind domain.OrderKind, year int) (int, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, notification domain.Notification) error
}

// Repositories groups the repositories of one transaction.
type Repositories struct {
	Products      ProductRepository
	Orders        OrderRepository
	Notifications NotificationRepository
}

// TxRunner executes fn atomically: either every write made through repos is
// visible to readers, or none is.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Reader serves read-consistent copies; callers may mutate what they receive.
type Reader interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	ListOrders(ctx context.Context, kind domain.OrderKind) ([]domain.Order, error)
	GetOrder(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error)
	// ProductHistory returns the product and, in creation order, every order
	// of either kind that references it, read at a single point in time.
	ProductHistory(ctx context.Context, productID string) (*domain.Product, []domain.Order, error)
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
}

type Catalog interface {
	RegisterProduct(ctx context.Context, product domain.Product) error
	RemoveProduct(ctx context.Context, productID string) error
}

type NotificationMarker interface {
	MarkAllNotificationsRead(ctx context.Context) (int, error)
}

// Backend is everything a storage implementation provides.
type Backend interface {
	TxRunner
	Reader
	Catalog
	NotificationMarker
}
