package dto

import (
	"github.com/shopspring/decimal"
)

type ProductQuantity struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

type CustomerValue struct {
	PartyID   string          `json:"partyId"`
	PartyName string          `json:"partyName"`
	Value     decimal.Decimal `json:"value"`
}

type CategoryValue struct {
	Category string          `json:"category"`
	Value    decimal.Decimal `json:"value"`
}

type DailyMovement struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type LowStockProduct struct {
	ProductID   string `json:"productId"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"minStock"`
}

type Dashboard struct {
	InvoicedTotal      decimal.Decimal   `json:"invoicedTotal"`
	InvoicedOrders     int               `json:"invoicedOrders"`
	PendingSalesOrders int               `json:"pendingSalesOrders"`
	InventoryValue     decimal.Decimal   `json:"inventoryValue"`
	LowStockCount      int               `json:"lowStockCount"`
	LowStock           []LowStockProduct `json:"lowStock"`
	TopProducts        []ProductQuantity `json:"topProducts"`
	TopCustomers       []CustomerValue   `json:"topCustomers"`
	SalesByCategory    []CategoryValue   `json:"salesByCategory"`
	StockMovements     []DailyMovement   `json:"stockMovements"`
}

type DashboardResponse struct {
	TraceID   string    `json:"traceId"`
	Dashboard Dashboard `json:"dashboard"`
}
