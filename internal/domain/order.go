package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderKind string

const (
	OrderKindSales    OrderKind = "sales"
	OrderKindPurchase OrderKind = "purchase"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusInvoiced  OrderStatus = "Invoiced"
	OrderStatusReceived  OrderStatus = "Received"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type kindRules struct {
	prefix     string
	fulfilling OrderStatus
	stockSign  int
	allowed    []OrderStatus
	linkBase   string
}

// The fulfilling status is the only one that carries a stock effect.
var rulesByKind = map[OrderKind]kindRules{
	OrderKindSales: {
		prefix:     "PV",
		fulfilling: OrderStatusInvoiced,
		stockSign:  -1,
		allowed:    []OrderStatus{OrderStatusPending, OrderStatusInvoiced, OrderStatusCancelled},
		linkBase:   "/sales/orders/",
	},
	OrderKindPurchase: {
		prefix:     "PC",
		fulfilling: OrderStatusReceived,
		stockSign:  1,
		allowed:    []OrderStatus{OrderStatusPending, OrderStatusReceived, OrderStatusCancelled},
		linkBase:   "/purchases/orders/",
	},
}

func ParseOrderKind(s string) (OrderKind, bool) {
	k := OrderKind(strings.ToLower(strings.TrimSpace(s)))
	_, ok := rulesByKind[k]
	return k, ok
}

func (k OrderKind) Valid() bool {
	_, ok := rulesByKind[k]
	return ok
}

func (k OrderKind) IsFulfilling(status OrderStatus) bool {
	r, ok := rulesByKind[k]
	return ok && r.fulfilling == status
}

// StockSign is -1 for sales (stock leaves) and +1 for purchases.
func (k OrderKind) StockSign() int {
	return rulesByKind[k].stockSign
}

func (k OrderKind) Allows(status OrderStatus) bool {
	for _, s := range rulesByKind[k].allowed {
		if s == status {
			return true
		}
	}
	return false
}

// ParseStatus matches s case-insensitively against the kind's status set.
func (k OrderKind) ParseStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, status := range rulesByKind[k].allowed {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

// FormatNumber renders the display number, e.g. PV-2024-007.
func (k OrderKind) FormatNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", rulesByKind[k].prefix, year, seq)
}

func (k OrderKind) Link(orderID string) string {
	return rulesByKind[k].linkBase + orderID
}

type Order struct {
	ID         string
	Number     string
	Kind       OrderKind
	PartyID    string
	PartyName  string
	Date       time.Time
	Status     OrderStatus
	TotalValue decimal.Decimal
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Fulfilled reports whether the order currently carries its stock effect.
func (o Order) Fulfilled() bool {
	return o.Kind.IsFulfilling(o.Status)
}

func (o Order) References(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the items slice.
func (o Order) Clone() Order {
	items := make([]OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

type OrderItem struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
