package product

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
	"almoxarife/internal/infrastructure/memory"
	"almoxarife/internal/ledger"
)

func newTestRouter(t *testing.T, products ...domain.Product) (http.Handler, *memory.Store) {
	t.Helper()
	s := memory.New()
	for _, p := range products {
		require.NoError(t, s.RegisterProduct(context.Background(), p))
	}

	ctrl := NewModule(s, ledger.NewService(s, zap.NewNop()), zap.NewNop())

	r := chi.NewRouter()
	r.Get("/products", ctrl.HandleList)
	r.Post("/products", ctrl.HandleRegister)
	r.Post("/products/search", ctrl.HandleSearchProducts)
	r.Get("/products/{productId}", ctrl.HandleGet)
	r.Delete("/products/{productId}", ctrl.HandleRemove)
	r.Get("/products/{productId}/movements", ctrl.HandleMovements)
	r.Get("/products/{productId}/movements.xlsx", ctrl.HandleMovementsXLSX)
	return r, s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func cimento() domain.Product {
	return domain.Product{ID: "p1", Code: "CIM-50", Description: "Cimento 50kg", Stock: 8, MinStock: 10, CostPrice: decimal.NewFromInt(30)}
}

// Service Tests

func TestService_GetProductsByIDs(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.RegisterProduct(context.Background(), cimento()))
	svc := NewService(s, zap.NewNop())

	found, notFound, err := svc.GetProductsByIDs(context.Background(), []string{"p1", "ghost", "p1"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ID)
	assert.Equal(t, []string{"ghost"}, notFound)
}

func TestService_RegisterGeneratesID(t *testing.T) {
	svc := NewService(memory.New(), zap.NewNop())

	p, err := svc.Register(context.Background(), dto.RegisterProductRequest{Code: " X1 ", Description: "Prego"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "X1", p.Code)
}

func TestService_RegisterRejectsNegativePrice(t *testing.T) {
	svc := NewService(memory.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), dto.RegisterProductRequest{
		Code: "X1", Description: "Prego", CostPrice: decimal.NewFromInt(-1),
	})
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "costPrice", ve.Details[0].Field)
}

// Controller Tests

func TestHandleList(t *testing.T) {
	h, _ := newTestRouter(t, cimento())

	rec := do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ProductListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraceID)
	require.Len(t, resp.Products, 1)
	assert.True(t, resp.Products[0].LowStock)
}

func TestHandleGet_NotFound(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/products/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestHandleRegister(t *testing.T) {
	h, s := newTestRouter(t, cimento())

	rec := do(t, h, http.MethodPost, "/products", `{"id":"p2","code":"AR-1","description":"Areia","costPrice":"3.5","stock":40,"minStock":5,"maxStock":100}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	p, err := s.GetProduct(context.Background(), "p2")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("3.5").Equal(p.CostPrice))

	rec = do(t, h, http.MethodPost, "/products", `{"code":"CIM-50","description":"Dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/products", `{"description":"No code"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/products", `{"code":"Z","description":"Z","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRegister_RejectsNegativeOpeningStock(t *testing.T) {
	h, s := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/products", `{"id":"p3","code":"BR-1","description":"Brita","stock":-5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "stock", resp.Details[0].Field)

	_, err := s.GetProduct(context.Background(), "p3")
	assert.True(t, apperrors.IsProductNotFound(err))
}

func TestHandleRemove(t *testing.T) {
	h, _ := newTestRouter(t, cimento())

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/products/p1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/products/p1", "").Code)
}

func TestHandleSearchProducts(t *testing.T) {
	h, _ := newTestRouter(t, cimento())

	rec := do(t, h, http.MethodPost, "/products/search", `{"productIds":["p1","p9"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SearchProductsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Found, 1)
	assert.Equal(t, []string{"p9"}, resp.NotFound)

	rec = do(t, h, http.MethodPost, "/products/search", `{"productIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMovements(t *testing.T) {
	h, _ := newTestRouter(t, cimento())

	rec := do(t, h, http.MethodGet, "/products/p1/movements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ProductHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.InitialBalance)
	assert.Empty(t, resp.Movements)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/products/ghost/movements", "").Code)
}

func TestHandleMovementsXLSX(t *testing.T) {
	h, _ := newTestRouter(t, cimento())

	rec := do(t, h, http.MethodGet, "/products/p1/movements.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}
