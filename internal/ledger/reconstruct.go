// Package ledger derives a product's movement history from its current stock
// and the orders that reference it. Nothing here is persisted.
package ledger

import (
	"sort"

	"almoxarife/internal/domain"
)

// Reconstruct returns one movement per line of every Received purchase and
// Invoiced sale referencing product, oldest first. Same-day purchases sort
// before same-day sales. The last balance always equals product.Stock.
func Reconstruct(product domain.Product, purchases, sales []domain.Order) []domain.Movement {
	movements := make([]domain.Movement, 0)
	movements = appendMovements(movements, product.ID, purchases, domain.OrderKindPurchase, domain.MovementInbound)
	movements = appendMovements(movements, product.ID, sales, domain.OrderKindSales, domain.MovementOutbound)

	sort.SliceStable(movements, func(i, j int) bool {
		return movements[i].Date.Before(movements[j].Date)
	})

	balance := InitialBalance(product, movements)
	for i := range movements {
		balance += movements[i].Quantity
		movements[i].Balance = balance
	}

	return movements
}

// InitialBalance is the stock the product must have held before the first movement.
func InitialBalance(product domain.Product, movements []domain.Movement) int {
	total := 0
	for _, m := range movements {
		total += m.Quantity
	}
	return product.Stock - total
}

// Split separates orders by kind, keeping their relative order.
func Split(orders []domain.Order) (purchases, sales []domain.Order) {
	for _, o := range orders {
		switch o.Kind {
		case domain.OrderKindPurchase:
			purchases = append(purchases, o)
		case domain.OrderKindSales:
			sales = append(sales, o)
		}
	}
	return purchases, sales
}

func appendMovements(
	movements []domain.Movement,
	productID string,
	orders []domain.Order,
	kind domain.OrderKind,
	direction domain.MovementDirection,
) []domain.Movement {
	sign := kind.StockSign()
	for _, o := range orders {
		if o.Kind != kind || !o.Fulfilled() {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID != productID {
				continue
			}
			movements = append(movements, domain.Movement{
				Date:           o.Date,
				Direction:      direction,
				DocumentNumber: o.Number,
				DocumentID:     o.ID,
				DocumentKind:   kind,
				Quantity:       sign * item.Quantity,
			})
		}
	}
	return movements
}
