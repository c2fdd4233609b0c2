package domain

import "time"

type MovementDirection string

const (
	MovementInbound  MovementDirection = "inbound"
	MovementOutbound MovementDirection = "outbound"
)

// Movement is one derived stock-affecting order event; it is never stored.
type Movement struct {
	Date           time.Time
	Direction      MovementDirection
	DocumentNumber string
	DocumentID     string
	DocumentKind   OrderKind
	Quantity       int
	Balance        int
}

// Snapshot is a read-consistent copy of the catalog and both order collections.
type Snapshot struct {
	Products       []Product
	SalesOrders    []Order
	PurchaseOrders []Order
}

func (s Snapshot) ProductByID(id string) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
