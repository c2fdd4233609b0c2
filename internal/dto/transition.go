package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"almoxarife/internal/domain"
)

type SkipReason string

const (
	SkipProductNotFound SkipReason = "PRODUCT_NOT_FOUND"
)

// StockChange records one applied stock adjustment.
type StockChange struct {
	ProductID string
	Delta     int
	Before    int
	After     int
}

// SkippedItem is an order line whose stock effect was not applied.
type SkippedItem struct {
	ProductID string
	Quantity  int
	Reason    SkipReason
}

type TransitionResult struct {
	OrderID        string
	OrderNumber    string
	Kind           domain.OrderKind
	PreviousStatus domain.OrderStatus
	Status         domain.OrderStatus
	Changed        bool
	Applied        []StockChange
	Skipped        []SkippedItem
	Events         []domain.Event
}

type NewOrderItem struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewOrder is the input for order creation. A zero Date means now and an
// empty Status means Pending.
type NewOrder struct {
	Kind      domain.OrderKind
	PartyID   string
	PartyName string
	Date      time.Time
	Status    domain.OrderStatus
	Items     []NewOrderItem
}

type CreateResult struct {
	Order   domain.Order
	Applied []StockChange
	Skipped []SkippedItem
	Events  []domain.Event
}
