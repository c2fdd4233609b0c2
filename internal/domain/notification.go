package domain

import "time"

type Notification struct {
	ID        string
	Message   string
	Read      bool
	CreatedAt time.Time
	LinkTo    string
}

type EventType string

const (
	EventLowStock      EventType = "low_stock"
	EventStatusChanged EventType = "status_changed"
)

// Event is a side effect produced by a committed order transition.
type Event struct {
	Type        EventType
	OrderID     string
	OrderNumber string
	ProductID   string
	Status      OrderStatus
	Message     string
	LinkTo      string
}
