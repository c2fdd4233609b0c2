package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/infrastructure/memory"
	"almoxarife/internal/notification"
	"almoxarife/internal/order/service"
)

func newTarget() (*memory.Store, *service.TransitionService) {
	s := memory.New()
	return s, service.NewTransitionService(s, notification.NewEmitter(), service.NegativeStockAllow, time.Second, zap.NewNop())
}

func TestLoad_DemoFile(t *testing.T) {
	f, err := Load("demo.yaml")
	require.NoError(t, err)

	assert.Len(t, f.Products, 7)
	assert.Len(t, f.Orders, 5)
	assert.Equal(t, "2024-07-28", f.Orders[1].Date)
}

func TestApply_DemoFile(t *testing.T) {
	f, err := Load("demo.yaml")
	require.NoError(t, err)

	s, transitions := newTarget()
	ctx := context.Background()
	require.NoError(t, Apply(ctx, f, s, transitions, zap.NewNop()))

	stock := func(id string) int {
		p, err := s.GetProduct(ctx, id)
		require.NoError(t, err)
		return p.Stock
	}
	assert.Equal(t, 142, stock("prod_001"))
	assert.Equal(t, 116, stock("prod_002"))
	assert.Equal(t, 33, stock("prod_004"))
	assert.Equal(t, 30, stock("prod_005"))
	assert.Equal(t, 60, stock("prod_007"))

	sales, err := s.ListOrders(ctx, domain.OrderKindSales)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "PV-2024-003", sales[0].Number)
	assert.Equal(t, domain.OrderStatusCancelled, sales[0].Status)
	assert.Equal(t, "PV-2024-001", sales[2].Number)
}

func TestApply_SkipsPopulatedStore(t *testing.T) {
	f, err := Load("demo.yaml")
	require.NoError(t, err)

	s, transitions := newTarget()
	ctx := context.Background()
	require.NoError(t, Apply(ctx, f, s, transitions, zap.NewNop()))
	require.NoError(t, Apply(ctx, f, s, transitions, zap.NewNop()))

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 7)

	purchases, err := s.ListOrders(ctx, domain.OrderKindPurchase)
	require.NoError(t, err)
	assert.Len(t, purchases, 2)
}

func TestApply_InvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad price", "products:\n  - id: p1\n    code: C1\n    description: D\n    costPrice: abc\n"},
		{"bad kind", "orders:\n  - kind: transfer\n    partyId: x\n    date: \"2024-01-01\"\n"},
		{"bad status", "orders:\n  - kind: sales\n    partyId: x\n    date: \"2024-01-01\"\n    status: Received\n"},
		{"bad date", "orders:\n  - kind: sales\n    partyId: x\n    date: yesterday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			s, transitions := newTarget()
			assert.Error(t, Apply(context.Background(), f, s, transitions, zap.NewNop()))
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}
