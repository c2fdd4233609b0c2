package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"almoxarife/internal/domain"
)

type RegisterProductRequest struct {
	ID          string          `json:"id" validate:"omitempty,max=64"`
	Code        string          `json:"code" validate:"required,max=64"`
	Description string          `json:"description" validate:"required,max=255"`
	Category    string          `json:"category" validate:"max=100"`
	Brand       string          `json:"brand" validate:"max=100"`
	CostPrice   decimal.Decimal `json:"costPrice"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Stock       int             `json:"stock" validate:"gte=0"`
	MinStock    int             `json:"minStock" validate:"gte=0"`
	MaxStock    int             `json:"maxStock" validate:"gte=0,gtefield=MinStock"`
}

type SearchProductsRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,max=100,dive,required"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	CostPrice   decimal.Decimal `json:"costPrice"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"minStock"`
	MaxStock    int             `json:"maxStock"`
	LowStock    bool            `json:"lowStock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type ProductListResponse struct {
	TraceID  string            `json:"traceId"`
	Products []ProductResponse `json:"products"`
}

type SearchProductsResponse struct {
	TraceID  string            `json:"traceId"`
	Found    []ProductResponse `json:"found"`
	NotFound []string          `json:"notFound"`
}

type MovementDTO struct {
	Date           string `json:"date"`
	Direction      string `json:"direction"`
	DocumentNumber string `json:"documentNumber"`
	DocumentID     string `json:"documentId"`
	DocumentKind   string `json:"documentKind"`
	Quantity       int    `json:"quantity"`
	Balance        int    `json:"balance"`
}

type ProductHistoryResponse struct {
	TraceID        string          `json:"traceId"`
	Product        ProductResponse `json:"product"`
	InitialBalance int             `json:"initialBalance"`
	Movements      []MovementDTO   `json:"movements"`
}

func NewProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		CostPrice:   p.CostPrice,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		MaxStock:    p.MaxStock,
		LowStock:    p.IsLowStock(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}

func NewMovementDTOs(movements []domain.Movement) []MovementDTO {
	out := make([]MovementDTO, len(movements))
	for i, m := range movements {
		out[i] = MovementDTO{
			Date:           m.Date.Format(time.DateOnly),
			Direction:      string(m.Direction),
			DocumentNumber: m.DocumentNumber,
			DocumentID:     m.DocumentID,
			DocumentKind:   string(m.DocumentKind),
			Quantity:       m.Quantity,
			Balance:        m.Balance,
		}
	}
	return out
}
