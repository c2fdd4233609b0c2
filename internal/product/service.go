package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
)

type productService struct {
	repo   Repository
	logger *zap.Logger
	newID  func() string
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &productService{
		repo:   repo,
		logger: logger,
		newID:  uuid.NewString,
	}
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *productService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, productID)
}

// Register adds a product to the catalog; the id is generated when absent.
func (s *productService) Register(ctx context.Context, req dto.RegisterProductRequest) (*domain.Product, error) {
	p := domain.Product{
		ID:          strings.TrimSpace(req.ID),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Brand:       strings.TrimSpace(req.Brand),
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		MaxStock:    req.MaxStock,
	}
	if p.ID == "" {
		p.ID = s.newID()
	}
	if err := validatePrices(p); err != nil {
		return nil, err
	}

	if err := s.repo.RegisterProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product registered", zap.String("productId", p.ID), zap.String("code", p.Code))
	return s.repo.GetProduct(ctx, p.ID)
}

func (s *productService) Remove(ctx context.Context, productID string) error {
	if err := s.repo.RemoveProduct(ctx, productID); err != nil {
		return err
	}
	s.logger.Info("product removed", zap.String("productId", productID))
	return nil
}

func (s *productService) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, []string, error) {
	all, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]domain.Product, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	var (
		found       []domain.Product
		notFoundIDs []string
	)
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if p, ok := byID[id]; ok {
			found = append(found, p)
		} else {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}

func validatePrices(p domain.Product) error {
	var details []apperrors.ValidationDetail
	if p.CostPrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "costPrice", Message: "costPrice must not be negative"})
	}
	if p.SalePrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "salePrice", Message: "salePrice must not be negative"})
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
