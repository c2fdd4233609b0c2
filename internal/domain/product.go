package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Code        string
	Description string
	Category    string
	Brand       string
	CostPrice   decimal.Decimal
	SalePrice   decimal.Decimal
	Stock       int
	MinStock    int
	MaxStock    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

// CrossedBelowMinimum reports a move from strictly above the minimum to at or below it.
func (p Product) CrossedBelowMinimum(before, after int) bool {
	return before > p.MinStock && after <= p.MinStock
}

func (p Product) InventoryValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
}
