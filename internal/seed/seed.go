// Package seed loads a demo catalog and order history from YAML.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
)

type File struct {
	Products []Product `yaml:"products"`
	Orders   []Order   `yaml:"orders"`
}

type Product struct {
	ID          string `yaml:"id"`
	Code        string `yaml:"code"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Brand       string `yaml:"brand"`
	CostPrice   string `yaml:"costPrice"`
	SalePrice   string `yaml:"salePrice"`
	Stock       int    `yaml:"stock"`
	MinStock    int    `yaml:"minStock"`
	MaxStock    int    `yaml:"maxStock"`
}

type Order struct {
	Kind      string `yaml:"kind"`
	PartyID   string `yaml:"partyId"`
	PartyName string `yaml:"partyName"`
	Date      string `yaml:"date"`
	Status    string `yaml:"status"`
	Items     []Item `yaml:"items"`
}

type Item struct {
	ProductID string `yaml:"productId"`
	Quantity  int    `yaml:"quantity"`
	UnitPrice string `yaml:"unitPrice"`
}

type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	RegisterProduct(ctx context.Context, product domain.Product) error
}

type OrderCreator interface {
	Create(ctx context.Context, in dto.NewOrder) (*dto.CreateResult, error)
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &f, nil
}

// Apply registers the products and creates the orders through creator, so
// orders seeded in a fulfilling status move stock like any other. A store
// that already has products is left untouched.
func Apply(ctx context.Context, f *File, catalog Catalog, creator OrderCreator, logger *zap.Logger) error {
	existing, err := catalog.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("store already populated, skipping seed", zap.Int("productCount", len(existing)))
		return nil
	}

	for i, sp := range f.Products {
		p, err := sp.toDomain()
		if err != nil {
			return fmt.Errorf("products[%d]: %w", i, err)
		}
		if err := catalog.RegisterProduct(ctx, p); err != nil {
			return fmt.Errorf("registering product %s: %w", p.ID, err)
		}
	}

	for i, so := range f.Orders {
		in, err := so.toNewOrder()
		if err != nil {
			return fmt.Errorf("orders[%d]: %w", i, err)
		}
		res, err := creator.Create(ctx, in)
		if err != nil {
			return fmt.Errorf("creating orders[%d]: %w", i, err)
		}
		logger.Debug("seeded order", zap.String("orderNumber", res.Order.Number), zap.String("status", string(res.Order.Status)))
	}

	logger.Info("seed applied", zap.Int("productCount", len(f.Products)), zap.Int("orderCount", len(f.Orders)))
	return nil
}

func (p Product) toDomain() (domain.Product, error) {
	cost, err := parseMoney(p.CostPrice)
	if err != nil {
		return domain.Product{}, fmt.Errorf("costPrice: %w", err)
	}
	sale, err := parseMoney(p.SalePrice)
	if err != nil {
		return domain.Product{}, fmt.Errorf("salePrice: %w", err)
	}

	return domain.Product{
		ID:          p.ID,
		Code:        p.Code,
		Description: p.Description,
		Category:    p.Category,
		Brand:       p.Brand,
		CostPrice:   cost,
		SalePrice:   sale,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		MaxStock:    p.MaxStock,
	}, nil
}

func (o Order) toNewOrder() (dto.NewOrder, error) {
	kind, ok := domain.ParseOrderKind(o.Kind)
	if !ok {
		return dto.NewOrder{}, fmt.Errorf("unknown kind %q", o.Kind)
	}

	var status domain.OrderStatus
	if o.Status != "" {
		if status, ok = kind.ParseStatus(o.Status); !ok {
			return dto.NewOrder{}, fmt.Errorf("status %q not valid for %s orders", o.Status, kind)
		}
	}

	date, err := time.Parse(time.DateOnly, o.Date)
	if err != nil {
		return dto.NewOrder{}, fmt.Errorf("date: %w", err)
	}

	items := make([]dto.NewOrderItem, len(o.Items))
	for i, it := range o.Items {
		price, err := parseMoney(it.UnitPrice)
		if err != nil {
			return dto.NewOrder{}, fmt.Errorf("items[%d].unitPrice: %w", i, err)
		}
		items[i] = dto.NewOrderItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: price}
	}

	return dto.NewOrder{
		Kind:      kind,
		PartyID:   o.PartyID,
		PartyName: o.PartyName,
		Date:      date,
		Status:    status,
		Items:     items,
	}, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
