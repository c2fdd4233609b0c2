package product

import (
	"context"

	"almoxarife/internal/dto"
)

type searchUseCase struct {
	service Service
}

func NewSearchUseCase(service Service) SearchUseCase {
	return &searchUseCase{service: service}
}

func (uc *searchUseCase) SearchProducts(ctx context.Context, req dto.SearchProductsRequest) (*dto.SearchProductsResponse, error) {
	found, notFoundIDs, err := uc.service.GetProductsByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}

	if notFoundIDs == nil {
		notFoundIDs = []string{}
	}

	return &dto.SearchProductsResponse{
		Found:    dto.NewProductResponses(found),
		NotFound: notFoundIDs,
	}, nil
}
