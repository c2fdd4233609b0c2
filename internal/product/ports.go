package product

import (
	"context"
	"io"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	"almoxarife/internal/ledger"
)

type SearchUseCase interface {
	SearchProducts(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error)
}

type Service interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Register(ctx context.Context, req dto.RegisterProductRequest) (*domain.Product, error)
	Remove(ctx context.Context, productID string) error
	GetProductsByIDs(ctx context.Context, ids []string) (found []domain.Product, notFoundIDs []string, err error)
}

type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	RegisterProduct(ctx context.Context, product domain.Product) error
	RemoveProduct(ctx context.Context, productID string) error
}

type LedgerService interface {
	History(ctx context.Context, productID string) (*ledger.History, error)
	ExportXLSX(ctx context.Context, productID string, w io.Writer) error
}
