package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
)

type mockSnapshotReader struct {
	SnapshotFunc func(ctx context.Context) (*domain.Snapshot, error)
}

func (m *mockSnapshotReader) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	return m.SnapshotFunc(ctx)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func salesOrder(id, party string, date time.Time, status domain.OrderStatus, items ...domain.OrderItem) domain.Order {
	return domain.Order{
		ID:         id,
		Kind:       domain.OrderKindSales,
		PartyID:    party,
		PartyName:  "Customer " + party,
		Date:       date,
		Status:     status,
		Items:      items,
		TotalValue: domain.CalculateTotal(items),
	}
}

func testSnapshot() domain.Snapshot {
	d1 := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)

	return domain.Snapshot{
		Products: []domain.Product{
			{ID: "p1", Description: "Cimento", Category: "Construção", CostPrice: dec("20"), Stock: 5, MinStock: 10},
			{ID: "p2", Description: "Tinta", Category: "Pintura", CostPrice: dec("50.50"), Stock: 30, MinStock: 10},
			{ID: "p3", Description: "Areia", Category: "Construção", CostPrice: dec("3"), Stock: 10, MinStock: 10},
		},
		SalesOrders: []domain.Order{
			salesOrder("v1", "c1", d1, domain.OrderStatusInvoiced,
				domain.OrderItem{ProductID: "p1", ProductName: "Cimento", Quantity: 4, UnitPrice: dec("30")},
				domain.OrderItem{ProductID: "p2", ProductName: "Tinta", Quantity: 1, UnitPrice: dec("80")}),
			salesOrder("v2", "c2", d2, domain.OrderStatusInvoiced,
				domain.OrderItem{ProductID: "p2", ProductName: "Tinta", Quantity: 5, UnitPrice: dec("80")},
				domain.OrderItem{ProductID: "gone", ProductName: "Removed", Quantity: 2, UnitPrice: dec("10")}),
			salesOrder("v3", "c1", d2, domain.OrderStatusPending,
				domain.OrderItem{ProductID: "p3", ProductName: "Areia", Quantity: 100, UnitPrice: dec("5")}),
			salesOrder("v4", "c3", d2, domain.OrderStatusCancelled,
				domain.OrderItem{ProductID: "p3", ProductName: "Areia", Quantity: 100, UnitPrice: dec("5")}),
		},
		PurchaseOrders: []domain.Order{
			{ID: "c1", Kind: domain.OrderKindPurchase, Date: d1, Status: domain.OrderStatusReceived,
				Items: []domain.OrderItem{{ProductID: "p1", Quantity: 7}, {ProductID: "p3", Quantity: 3}}},
			{ID: "c2", Kind: domain.OrderKindPurchase, Date: d2, Status: domain.OrderStatusPending,
				Items: []domain.OrderItem{{ProductID: "p1", Quantity: 50}}},
		},
	}
}

func TestBuild(t *testing.T) {
	d := Build(testSnapshot())

	// 5*20 + 30*50.50 + 10*3
	assert.True(t, dec("1645").Equal(d.InventoryValue), d.InventoryValue.String())

	assert.Equal(t, 2, d.LowStockCount)
	require.Len(t, d.LowStock, 2)
	assert.Equal(t, "p1", d.LowStock[0].ProductID)
	assert.Equal(t, "p3", d.LowStock[1].ProductID)

	assert.Equal(t, 2, d.InvoicedOrders)
	assert.Equal(t, 1, d.PendingSalesOrders)
	assert.True(t, dec("620").Equal(d.InvoicedTotal), d.InvoicedTotal.String())

	require.Len(t, d.TopProducts, 3)
	assert.Equal(t, "p2", d.TopProducts[0].ProductID)
	assert.Equal(t, 6, d.TopProducts[0].Quantity)
	assert.Equal(t, "p1", d.TopProducts[1].ProductID)

	require.Len(t, d.TopCustomers, 2)
	assert.Equal(t, "c2", d.TopCustomers[0].PartyID)
	assert.True(t, dec("420").Equal(d.TopCustomers[0].Value))
	assert.True(t, dec("200").Equal(d.TopCustomers[1].Value))

	require.Len(t, d.SalesByCategory, 2)
	assert.Equal(t, "Construção", d.SalesByCategory[0].Category)
	assert.True(t, dec("120").Equal(d.SalesByCategory[0].Value))
	assert.Equal(t, "Pintura", d.SalesByCategory[1].Category)
	assert.True(t, dec("480").Equal(d.SalesByCategory[1].Value))

	require.Len(t, d.StockMovements, 2)
	assert.Equal(t, "2024-07-01", d.StockMovements[0].Date)
	assert.Equal(t, 10, d.StockMovements[0].Inbound)
	assert.Equal(t, 5, d.StockMovements[0].Outbound)
	assert.Equal(t, "2024-07-02", d.StockMovements[1].Date)
	assert.Equal(t, 0, d.StockMovements[1].Inbound)
	assert.Equal(t, 7, d.StockMovements[1].Outbound)
}

func TestBuild_TopProductsCappedAtFive(t *testing.T) {
	var items []domain.OrderItem
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, domain.OrderItem{ProductID: id, Quantity: i + 1, UnitPrice: dec("1")})
	}
	snap := domain.Snapshot{
		SalesOrders: []domain.Order{salesOrder("v1", "c1", time.Now(), domain.OrderStatusInvoiced, items...)},
	}

	d := Build(snap)

	require.Len(t, d.TopProducts, 5)
	assert.Equal(t, "g", d.TopProducts[0].ProductID)
	assert.Equal(t, "c", d.TopProducts[4].ProductID)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	d := Build(domain.Snapshot{})

	assert.True(t, d.InventoryValue.IsZero())
	assert.Equal(t, 0, d.LowStockCount)
	assert.NotNil(t, d.LowStock)
	assert.NotNil(t, d.TopProducts)
	assert.NotNil(t, d.StockMovements)
}

func TestDashboard_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&mockSnapshotReader{
		SnapshotFunc: func(ctx context.Context) (*domain.Snapshot, error) { return nil, boom },
	}, zap.NewNop())

	_, err := svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDashboard(t *testing.T) {
	snap := testSnapshot()
	svc := NewService(&mockSnapshotReader{
		SnapshotFunc: func(ctx context.Context) (*domain.Snapshot, error) { return &snap, nil },
	}, zap.NewNop())

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, d.LowStockCount)
}
