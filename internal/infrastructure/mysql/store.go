// Package mysql is the durable storage backend. Transitions run in
// REPEATABLE READ transactions that lock the order and its products with
// SELECT ... FOR UPDATE; reads use a read-only transaction so every view is
// taken at a single point in time.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"almoxarife/internal/domain"
	apperrors "almoxarife/internal/errors"
	"almoxarife/internal/store"
)

const errDuplicateEntry = 1062

type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Backend = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: time.Now,
	}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return apperrors.NewInternalError("beginning transaction", err)
	}
	defer tx.Rollback()

	repos := store.Repositories{
		Products:      &productRepository{q: tx, now: s.now},
		Orders:        &orderRepository{q: tx, now: s.now},
		Notifications: &notificationRepository{q: tx},
	}
	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("committing transaction", err)
	}
	return nil
}

// read runs fn inside a read-only REPEATABLE READ transaction.
func (s *Store) read(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return apperrors.NewInternalError("beginning read transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("committing read transaction", err)
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	err := s.read(ctx, func(q querier) error {
		var err error
		products, err = listProducts(ctx, q)
		return err
	})
	return products, err
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return findProduct(ctx, s.db, productID, false)
}

// ListOrders returns the orders of kind, newest first.
func (s *Store) ListOrders(ctx context.Context, kind domain.OrderKind) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.read(ctx, func(q querier) error {
		var err error
		orders, err = listOrders(ctx, q, kind)
		return err
	})
	return orders, err
}

func (s *Store) GetOrder(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.read(ctx, func(q querier) error {
		var err error
		order, err = findOrder(ctx, q, kind, orderID, false)
		return err
	})
	return order, err
}

func (s *Store) ProductHistory(ctx context.Context, productID string) (*domain.Product, []domain.Order, error) {
	var (
		product *domain.Product
		orders  []domain.Order
	)
	err := s.read(ctx, func(q querier) error {
		var err error
		product, err = findProduct(ctx, q, productID, false)
		if err != nil {
			return err
		}

		const referencesProduct = `EXISTS (
			SELECT 1 FROM OrderItems h
			WHERE h.orderKind = o.kind AND h.orderId = o.id AND h.productId = ?
		)`
		rows, err := q.QueryContext(ctx, `SELECT `+orderColumns+` FROM Orders o WHERE `+referencesProduct+` ORDER BY o.seq ASC`, productID)
		if err != nil {
			return apperrors.NewInternalError("querying product history", err)
		}
		orders, err = scanOrders(rows)
		if err != nil {
			return err
		}
		return attachItems(ctx, q, orders, referencesProduct, productID)
	})
	if err != nil {
		return nil, nil, err
	}
	return product, orders, nil
}

func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{}
	err := s.read(ctx, func(q querier) error {
		var err error
		if snap.Products, err = listProducts(ctx, q); err != nil {
			return err
		}
		if snap.SalesOrders, err = listOrders(ctx, q, domain.OrderKindSales); err != nil {
			return err
		}
		snap.PurchaseOrders, err = listOrders(ctx, q, domain.OrderKindPurchase)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, isRead, linkTo, createdAt
		FROM Notifications
		ORDER BY seq DESC`)
	if err != nil {
		return nil, apperrors.NewInternalError("querying notifications", err)
	}
	defer rows.Close()

	feed := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Read, &n.LinkTo, &n.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("scanning notification row", err)
		}
		feed = append(feed, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("iterating notification rows", err)
	}
	return feed, nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE Notifications SET isRead = 1 WHERE isRead = 0`)
	if err != nil {
		return 0, apperrors.NewInternalError("marking notifications read", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("getting rows affected", err)
	}
	return int(n), nil
}

func (s *Store) RegisterProduct(ctx context.Context, product domain.Product) error {
	now := s.now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO Products (id, code, description, category, brand, costPrice, salePrice,
		                      stock, minStock, maxStock, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID, product.Code, product.Description, product.Category, product.Brand,
		product.CostPrice, product.SalePrice, product.Stock, product.MinStock, product.MaxStock,
		product.CreatedAt, product.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		var me *mysql.MySQLError
		errors.As(err, &me)
		if strings.Contains(me.Message, "PRIMARY") {
			return apperrors.NewConflictError("PRODUCT_EXISTS", "product "+product.ID+" already exists")
		}
		return apperrors.NewConflictError("PRODUCT_CODE_EXISTS", "product code "+product.Code+" already in use")
	}
	if err != nil {
		return apperrors.NewInternalError("inserting product", err)
	}
	return nil
}

// RemoveProduct deletes the catalog row; the DELETE waits on any transaction
// holding the product's row lock.
func (s *Store) RemoveProduct(ctx context.Context, productID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM Products WHERE id = ?`, productID)
	if err != nil {
		return apperrors.NewInternalError("deleting product", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("getting rows affected", err)
	}
	if n == 0 {
		return apperrors.NewProductNotFoundError(productID)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}
