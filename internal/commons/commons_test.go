package commons

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
)

func TestValidate_ReportsJSONFieldPaths(t *testing.T) {
	req := dto.CreateOrderRequest{
		PartyName: "Acme",
		Items: []dto.CreateOrderItemDTO{
			{ProductID: "", Quantity: 0},
		},
	}

	ve := Validate(req)
	require.NotNil(t, ve)

	fields := make(map[string]string)
	for _, d := range ve.Details {
		fields[d.Field] = d.Message
	}
	assert.Contains(t, fields, "partyId")
	assert.Contains(t, fields, "items[0].productId")
	assert.Contains(t, fields, "items[0].quantity")
	assert.Equal(t, "partyId is required", fields["partyId"])
}

func TestValidate_Valid(t *testing.T) {
	req := dto.CreateOrderRequest{
		PartyID:   "c1",
		PartyName: "Acme",
		Date:      "2024-07-20",
		Items:     []dto.CreateOrderItemDTO{{ProductID: "p1", Quantity: 2}},
	}
	assert.Nil(t, Validate(req))
}

func TestValidate_BadDate(t *testing.T) {
	req := dto.CreateOrderRequest{
		PartyID:   "c1",
		PartyName: "Acme",
		Date:      "20/07/2024",
		Items:     []dto.CreateOrderItemDTO{{ProductID: "p1", Quantity: 2}},
	}
	ve := Validate(req)
	require.NotNil(t, ve)
	assert.Equal(t, "date", ve.Details[0].Field)
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"status":"Invoiced"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "malformed", body: `{"status":`, wantErr: true},
		{name: "unknown field", body: `{"status":"Invoiced","extra":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst dto.UpdateStatusRequest
			ve := DecodeJSON(r, &dst)
			if tt.wantErr {
				assert.NotNil(t, ve)
				return
			}
			assert.Nil(t, ve)
			assert.Equal(t, "Invoiced", dst.Status)
		})
	}
}

func TestHandleError_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{name: "validation", err: apperrors.NewInvalidStatusError("sales", "Shipped"), wantCode: http.StatusBadRequest, wantBody: "VALIDATION_ERROR"},
		{name: "not found", err: apperrors.NewOrderNotFoundError("sales", "o1"), wantCode: http.StatusNotFound, wantBody: "NOT_FOUND"},
		{name: "conflict", err: apperrors.NewConflictError("INSUFFICIENT_STOCK", "no stock"), wantCode: http.StatusConflict, wantBody: "INSUFFICIENT_STOCK"},
		{name: "deadlock", err: apperrors.NewDeadlockError("max retries exceeded"), wantCode: http.StatusConflict, wantBody: "DEADLOCK"},
		{name: "wrapped not found", err: fmt.Errorf("loading: %w", apperrors.NewProductNotFoundError("p1")), wantCode: http.StatusNotFound, wantBody: "NOT_FOUND"},
		{name: "internal", err: apperrors.NewInternalError("querying orders", fmt.Errorf("connection refused")), wantCode: http.StatusInternalServerError, wantBody: "INTERNAL_ERROR"},
		{name: "unknown", err: fmt.Errorf("boom"), wantCode: http.StatusInternalServerError, wantBody: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, "trace-1", tt.err, zap.NewNop())

			assert.Equal(t, tt.wantCode, w.Code)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "trace-1", resp.TraceID)
			assert.Equal(t, tt.wantBody, resp.Code)
			assert.Equal(t, tt.wantCode, resp.Status)
		})
	}
}

func TestHandleError_InternalErrorHidesCause(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	cause := fmt.Errorf("dial tcp 10.0.0.5:3306: connection refused")
	err := fmt.Errorf("listing: %w", apperrors.NewInternalError("querying orders", cause))

	w := httptest.NewRecorder()
	HandleError(w, "trace-9", err, zap.New(core))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")

	entries := logs.FilterMessage("internal error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "querying orders", entries[0].ContextMap()["operation"])
	assert.Equal(t, "trace-9", entries[0].ContextMap()["traceId"])
}
