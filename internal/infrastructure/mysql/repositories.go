package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"almoxarife/internal/domain"
	apperrors "almoxarife/internal/errors"
)

const productColumns = `id, code, description, category, brand, costPrice, salePrice,
	stock, minStock, maxStock, createdAt, updatedAt`

const orderColumns = `o.kind, o.id, o.number, o.partyId, o.partyName, o.orderDate,
	o.status, o.totalValue, o.createdAt, o.updatedAt`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Description, &p.Category, &p.Brand,
		&p.CostPrice, &p.SalePrice,
		&p.Stock, &p.MinStock, &p.MaxStock,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func findProduct(ctx context.Context, q querier, productID string, forUpdate bool) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM Products WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	p, err := scanProduct(q.QueryRowContext(ctx, query, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewProductNotFoundError(productID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("querying product by id", err)
	}
	return p, nil
}

func listProducts(ctx context.Context, q querier) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+productColumns+` FROM Products ORDER BY seq ASC`)
	if err != nil {
		return nil, apperrors.NewInternalError("querying products", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("scanning product row", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("iterating product rows", err)
	}
	return products, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.Kind, &o.ID, &o.Number, &o.PartyID, &o.PartyName, &o.Date,
		&o.Status, &o.TotalValue, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Items = []domain.OrderItem{}
	return &o, nil
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("scanning order row", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("iterating order rows", err)
	}
	return orders, nil
}

func findOrder(ctx context.Context, q querier, kind domain.OrderKind, orderID string, forUpdate bool) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders o WHERE o.kind = ? AND o.id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(q.QueryRowContext(ctx, query, kind, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewOrderNotFoundError(string(kind), orderID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("querying order by id", err)
	}

	orders := []domain.Order{*o}
	if err := attachItems(ctx, q, orders, `o.kind = ? AND o.id = ?`, kind, orderID); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func listOrders(ctx context.Context, q querier, kind domain.OrderKind) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+orderColumns+` FROM Orders o WHERE o.kind = ? ORDER BY o.seq DESC`, kind)
	if err != nil {
		return nil, apperrors.NewInternalError("querying orders", err)
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := attachItems(ctx, q, orders, `o.kind = ?`, kind); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the lines of orders in line order. where filters Orders o
// with the same condition that selected orders, so the query size does not
// grow with the number of orders.
func attachItems(ctx context.Context, q querier, orders []domain.Order, where string, args ...interface{}) error {
	if len(orders) == 0 {
		return nil
	}

	type key struct {
		kind domain.OrderKind
		id   string
	}
	index := make(map[key]int, len(orders))
	for i, o := range orders {
		index[key{o.Kind, o.ID}] = i
	}

	query := `
		SELECT i.orderKind, i.orderId, i.productId, i.productName, i.quantity, i.unitPrice
		FROM OrderItems i
		JOIN Orders o ON o.kind = i.orderKind AND o.id = i.orderId
		WHERE ` + where + `
		ORDER BY i.orderKind, i.orderId, i.line`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("querying order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			k    key
			item domain.OrderItem
		)
		if err := rows.Scan(&k.kind, &k.id, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return apperrors.NewInternalError("scanning order item row", err)
		}
		if i, ok := index[k]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewInternalError("iterating order item rows", err)
	}
	return nil
}

type productRepository struct {
	q   querier
	now func() time.Time
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, productID string) (*domain.Product, error) {
	return findProduct(ctx, r.q, productID, true)
}

func (r *productRepository) AdjustStock(ctx context.Context, productID string, delta int) (int, int, error) {
	p, err := r.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return 0, 0, err
	}

	before := p.Stock
	after := before + delta
	_, err = r.q.ExecContext(ctx, `UPDATE Products SET stock = ?, updatedAt = ? WHERE id = ?`, after, r.now().UTC(), productID)
	if err != nil {
		return 0, 0, apperrors.NewInternalError("updating product stock", err)
	}
	return before, after, nil
}

type orderRepository struct {
	q   querier
	now func() time.Time
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error) {
	return findOrder(ctx, r.q, kind, orderID, true)
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) error {
	now := r.now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO Orders (kind, id, number, partyId, partyName, orderDate, status, totalValue, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.Kind, order.ID, order.Number, order.PartyID, order.PartyName, order.Date,
		order.Status, order.TotalValue, order.CreatedAt, now,
	)
	if isDuplicateEntry(err) {
		return apperrors.NewConflictError("ORDER_EXISTS", "order "+order.ID+" already exists")
	}
	if err != nil {
		return apperrors.NewInternalError("inserting order", err)
	}

	for i, item := range order.Items {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO OrderItems (orderKind, orderId, line, productId, productName, quantity, unitPrice)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.Kind, order.ID, i+1, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return apperrors.NewInternalError("inserting order item", err)
		}
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, kind domain.OrderKind, orderID string, status domain.OrderStatus) error {
	result, err := r.q.ExecContext(ctx, `UPDATE Orders SET status = ?, updatedAt = ? WHERE kind = ? AND id = ?`,
		status, r.now().UTC(), kind, orderID)
	if err != nil {
		return apperrors.NewInternalError("updating order status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("getting rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewOrderNotFoundError(string(kind), orderID)
	}
	return nil
}

// NextSequence bumps the (kind, year) counter row; the row stays locked until
// the transaction ends, and a rollback returns the number.
func (r *orderRepository) NextSequence(ctx context.Context, kind domain.OrderKind, year int) (int, error) {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO OrderSequences (kind, year, lastValue) VALUES (?, ?, 1)
		ON DUPLICATE KEY UPDATE lastValue = lastValue + 1`, kind, year)
	if err != nil {
		return 0, apperrors.NewInternalError("bumping order sequence", err)
	}

	var next int
	err = r.q.QueryRowContext(ctx, `SELECT lastValue FROM OrderSequences WHERE kind = ? AND year = ?`, kind, year).Scan(&next)
	if err != nil {
		return 0, apperrors.NewInternalError("reading order sequence", err)
	}
	return next, nil
}

type notificationRepository struct {
	q querier
}

func (r *notificationRepository) Insert(ctx context.Context, n domain.Notification) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO Notifications (id, message, isRead, linkTo, createdAt)
		VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.Message, n.Read, n.LinkTo, n.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("inserting notification", err)
	}
	return nil
}
