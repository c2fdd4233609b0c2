package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
)

const topN = 5

type SnapshotReader interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
}

type Service struct {
	reader SnapshotReader
	logger *zap.Logger
}

func NewService(reader SnapshotReader, logger *zap.Logger) *Service {
	return &Service{
		reader: reader,
		logger: logger,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*dto.Dashboard, error) {
	snap, err := s.reader.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	d := Build(*snap)
	s.logger.Debug("dashboard built", zap.Int("lowStockCount", d.LowStockCount), zap.Int("invoicedOrders", d.InvoicedOrders))
	return &d, nil
}

// Build computes every dashboard figure from one snapshot.
func Build(snap domain.Snapshot) dto.Dashboard {
	d := dto.Dashboard{
		InvoicedTotal:   decimal.Zero,
		InventoryValue:  decimal.Zero,
		LowStock:        []dto.LowStockProduct{},
		TopProducts:     []dto.ProductQuantity{},
		TopCustomers:    []dto.CustomerValue{},
		SalesByCategory: []dto.CategoryValue{},
		StockMovements:  []dto.DailyMovement{},
	}

	for _, p := range snap.Products {
		d.InventoryValue = d.InventoryValue.Add(p.InventoryValue())
		if p.IsLowStock() {
			d.LowStock = append(d.LowStock, dto.LowStockProduct{
				ProductID:   p.ID,
				Description: p.Description,
				Stock:       p.Stock,
				MinStock:    p.MinStock,
			})
		}
	}
	d.LowStockCount = len(d.LowStock)

	for _, o := range snap.SalesOrders {
		switch {
		case o.Fulfilled():
			d.InvoicedOrders++
			d.InvoicedTotal = d.InvoicedTotal.Add(o.TotalValue)
		case o.Status == domain.OrderStatusPending:
			d.PendingSalesOrders++
		}
	}

	d.TopProducts = topProducts(snap.SalesOrders)
	d.TopCustomers = topCustomers(snap.SalesOrders)
	d.SalesByCategory = salesByCategory(snap)
	d.StockMovements = dailyMovements(snap)

	return d
}

func topProducts(sales []domain.Order) []dto.ProductQuantity {
	byProduct := make(map[string]*dto.ProductQuantity)
	for _, o := range sales {
		if !o.Fulfilled() {
			continue
		}
		for _, item := range o.Items {
			pq, ok := byProduct[item.ProductID]
			if !ok {
				pq = &dto.ProductQuantity{ProductID: item.ProductID, ProductName: item.ProductName}
				byProduct[item.ProductID] = pq
			}
			pq.Quantity += item.Quantity
		}
	}

	out := make([]dto.ProductQuantity, 0, len(byProduct))
	for _, pq := range byProduct {
		out = append(out, *pq)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topCustomers(sales []domain.Order) []dto.CustomerValue {
	byParty := make(map[string]*dto.CustomerValue)
	for _, o := range sales {
		if !o.Fulfilled() {
			continue
		}
		cv, ok := byParty[o.PartyID]
		if !ok {
			cv = &dto.CustomerValue{PartyID: o.PartyID, PartyName: o.PartyName, Value: decimal.Zero}
			byParty[o.PartyID] = cv
		}
		cv.Value = cv.Value.Add(o.TotalValue)
	}

	out := make([]dto.CustomerValue, 0, len(byParty))
	for _, cv := range byParty {
		out = append(out, *cv)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].PartyID < out[j].PartyID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// salesByCategory ignores lines whose product is no longer in the catalog.
func salesByCategory(snap domain.Snapshot) []dto.CategoryValue {
	byCategory := make(map[string]decimal.Decimal)
	for _, o := range snap.SalesOrders {
		if !o.Fulfilled() {
			continue
		}
		for _, item := range o.Items {
			p, ok := snap.ProductByID(item.ProductID)
			if !ok {
				continue
			}
			byCategory[p.Category] = byCategory[p.Category].Add(item.Subtotal())
		}
	}

	out := make([]dto.CategoryValue, 0, len(byCategory))
	for category, value := range byCategory {
		out = append(out, dto.CategoryValue{Category: category, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func dailyMovements(snap domain.Snapshot) []dto.DailyMovement {
	byDate := make(map[string]*dto.DailyMovement)
	get := func(t time.Time) *dto.DailyMovement {
		key := t.Format(time.DateOnly)
		dm, ok := byDate[key]
		if !ok {
			dm = &dto.DailyMovement{Date: key}
			byDate[key] = dm
		}
		return dm
	}

	for _, o := range snap.PurchaseOrders {
		if !o.Fulfilled() {
			continue
		}
		dm := get(o.Date)
		for _, item := range o.Items {
			dm.Inbound += item.Quantity
		}
	}
	for _, o := range snap.SalesOrders {
		if !o.Fulfilled() {
			continue
		}
		dm := get(o.Date)
		for _, item := range o.Items {
			dm.Outbound += item.Quantity
		}
	}

	out := make([]dto.DailyMovement, 0, len(byDate))
	for _, dm := range byDate {
		out = append(out, *dm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
