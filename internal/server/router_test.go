package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"almoxarife/internal/config"
	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	"almoxarife/internal/infrastructure/memory"
	"almoxarife/internal/ledger"
	"almoxarife/internal/notification"
	"almoxarife/internal/order"
	"almoxarife/internal/product"
	"almoxarife/internal/report"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	s := memory.New()
	require.NoError(t, s.RegisterProduct(context.Background(), domain.Product{
		ID: "p1", Code: "BOS-0986", Description: "Pastilha de Freio", Category: "Freios",
		CostPrice: decimal.NewFromInt(65), Stock: 12, MinStock: 10,
	}))

	cfg := &config.Config{
		Order:     config.OrderConfig{TransitionTxTimeout: time.Second, MaxRetryAttempts: 3},
		Inventory: config.InventoryConfig{NegativeStock: "allow"},
	}
	orderModule := order.NewModule(s, notification.NewEmitter(), cfg, logger)

	return NewRouter(Controllers{
		Products:      product.NewModule(s, ledger.NewService(s, logger), logger),
		Orders:        orderModule.Controller,
		Notifications: notification.NewController(notification.NewService(s, logger), logger),
		Reports:       report.NewController(report.NewService(s, logger), logger),
	}, logger)
}

func call(t *testing.T, h http.Handler, method, path, body string, out interface{}) int {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestRouter_Health(t *testing.T) {
	h := newTestHandler(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_OrderLifecycle(t *testing.T) {
	h := newTestHandler(t)

	var created dto.CreateOrderResponse
	code := call(t, h, http.MethodPost, "/orders/sales",
		`{"partyId":"cust_001","partyName":"Oficina Veloz","date":"2024-07-28","items":[{"productId":"p1","quantity":3,"unitPrice":"129.90"}]}`,
		&created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "PV-2024-001", created.Order.Number)
	assert.Equal(t, "Pending", created.Order.Status)
	orderID := created.Order.ID

	var transition dto.TransitionResponse
	code = call(t, h, http.MethodPatch, "/orders/sales/"+orderID+"/status", `{"status":"invoiced"}`, &transition)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, transition.Changed)
	assert.Equal(t, "Invoiced", transition.Status)
	require.Len(t, transition.Applied, 1)
	assert.Equal(t, 9, transition.Applied[0].After)

	var feed dto.NotificationFeedResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/notifications", "", &feed))
	assert.Equal(t, 2, feed.Unread)
	require.Len(t, feed.Notifications, 2)
	assert.Equal(t, "/sales/orders/"+orderID, feed.Notifications[0].LinkTo)
	assert.Equal(t, "Low stock: Pastilha de Freio", feed.Notifications[1].Message)

	var badge dto.UnreadCountResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/notifications/unread", "", &badge))
	assert.Equal(t, 2, badge.Unread)
	assert.NotEmpty(t, badge.TraceID)

	var dashboard dto.DashboardResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/reports/dashboard", "", &dashboard))
	assert.Equal(t, 1, dashboard.Dashboard.LowStockCount)
	assert.Equal(t, 1, dashboard.Dashboard.InvoicedOrders)

	var history dto.ProductHistoryResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/products/p1/movements", "", &history))
	assert.Equal(t, 12, history.InitialBalance)
	require.Len(t, history.Movements, 1)
	assert.Equal(t, 9, history.Movements[0].Balance)

	code = call(t, h, http.MethodPost, "/orders/sales/"+orderID+"/cancel", "", &transition)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Invoiced", transition.PreviousStatus)

	var p dto.ProductResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/products/p1", "", &p))
	assert.Equal(t, 12, p.Stock)

	var marked dto.MarkReadResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, "/notifications/read", "", &marked))
	assert.Equal(t, 3, marked.Marked)

	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/notifications/unread", "", &badge))
	assert.Equal(t, 0, badge.Unread)

	var list dto.OrderListResponse
	require.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/orders/sales", "", &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, "Cancelled", list.Orders[0].Status)
}

func TestRouter_Errors(t *testing.T) {
	h := newTestHandler(t)

	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodGet, "/orders/transfer", "", &errResp))
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/orders/purchase/ghost", "", &errResp))

	assert.Equal(t, http.StatusBadRequest,
		call(t, h, http.MethodPatch, "/orders/purchase/ghost/status", `{"status":"Invoiced"}`, &errResp))

	assert.Equal(t, http.StatusNotFound,
		call(t, h, http.MethodPatch, "/orders/purchase/ghost/status", `{"status":"Received"}`, &errResp))

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodPost, "/orders/sales",
		`{"partyId":"c","partyName":"C","items":[{"productId":"ghost","quantity":1,"unitPrice":"1"}]}`, &errResp))

	assert.Equal(t, http.StatusBadRequest, call(t, h, http.MethodPost, "/orders/sales",
		`{"partyId":"c","partyName":"C","items":[]}`, &errResp))
}
