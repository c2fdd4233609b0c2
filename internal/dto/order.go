package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"almoxarife/internal/domain"
)

type CreateOrderRequest struct {
	PartyID   string               `json:"partyId" validate:"required,max=64"`
	PartyName string               `json:"partyName" validate:"required,max=255"`
	Date      string               `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    string               `json:"status"`
	Items     []CreateOrderItemDTO `json:"items" validate:"required,min=1,max=100,dive"`
}

type CreateOrderItemDTO struct {
	ProductID string          `json:"productId" validate:"required,max=64"`
	Quantity  int             `json:"quantity" validate:"gte=1,lte=10000"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderItemDTO struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID         string          `json:"id"`
	Number     string          `json:"number"`
	Kind       string          `json:"kind"`
	PartyID    string          `json:"partyId"`
	PartyName  string          `json:"partyName"`
	Date       string          `json:"date"`
	Status     string          `json:"status"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Items      []OrderItemDTO  `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type OrderListResponse struct {
	TraceID string          `json:"traceId"`
	Orders  []OrderResponse `json:"orders"`
}

type StockChangeDTO struct {
	ProductID string `json:"productId"`
	Delta     int    `json:"delta"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
}

type SkippedItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

type TransitionResponse struct {
	TraceID        string           `json:"traceId"`
	OrderID        string           `json:"orderId"`
	OrderNumber    string           `json:"orderNumber"`
	PreviousStatus string           `json:"previousStatus"`
	Status         string           `json:"status"`
	Changed        bool             `json:"changed"`
	Applied        []StockChangeDTO `json:"applied"`
	Skipped        []SkippedItemDTO `json:"skipped"`
	Timestamp      time.Time        `json:"timestamp"`
}

type CreateOrderResponse struct {
	TraceID   string           `json:"traceId"`
	Order     OrderResponse    `json:"order"`
	Applied   []StockChangeDTO `json:"applied"`
	Skipped   []SkippedItemDTO `json:"skipped"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		}
	}

	return OrderResponse{
		ID:         o.ID,
		Number:     o.Number,
		Kind:       string(o.Kind),
		PartyID:    o.PartyID,
		PartyName:  o.PartyName,
		Date:       o.Date.Format(time.DateOnly),
		Status:     string(o.Status),
		TotalValue: o.TotalValue,
		Items:      items,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func NewStockChangeDTOs(changes []StockChange) []StockChangeDTO {
	out := make([]StockChangeDTO, len(changes))
	for i, c := range changes {
		out[i] = StockChangeDTO{ProductID: c.ProductID, Delta: c.Delta, Before: c.Before, After: c.After}
	}
	return out
}

func NewSkippedItemDTOs(skipped []SkippedItem) []SkippedItemDTO {
	out := make([]SkippedItemDTO, len(skipped))
	for i, s := range skipped {
		out[i] = SkippedItemDTO{ProductID: s.ProductID, Quantity: s.Quantity, Reason: string(s.Reason)}
	}
	return out
}
