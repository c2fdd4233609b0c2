package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"almoxarife/internal/commons"
	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
)

type OrderUseCase interface {
	ListOrders(ctx context.Context, kind string) ([]domain.Order, error)
	GetOrder(ctx context.Context, kind string, orderID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, kind string, req dto.CreateOrderRequest) (*dto.CreateResult, error)
	SetStatus(ctx context.Context, kind string, orderID string, status string) (*dto.TransitionResult, error)
	Cancel(ctx context.Context, kind string, orderID string) (*dto.TransitionResult, error)
}

type OrderController struct {
	useCase OrderUseCase
	logger  *zap.Logger
}

func NewOrderController(useCase OrderUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	orders, err := c.useCase.ListOrders(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	resp := dto.OrderListResponse{
		TraceID: traceID,
		Orders:  make([]dto.OrderResponse, len(orders)),
	}
	for i, o := range orders {
		resp.Orders[i] = dto.NewOrderResponse(o)
	}
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	o, err := c.useCase.GetOrder(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "orderId"))
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewOrderResponse(*o), c.logger)
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))
	kind := chi.URLParam(r, "kind")

	// Decode and validate request body
	var req dto.CreateOrderRequest
	if ve := commons.DecodeJSON(r, &req); ve != nil {
		logger.Warn("invalid JSON body")
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}
	if ve := commons.Validate(req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}

	result, err := c.useCase.CreateOrder(r.Context(), kind, req)
	if err != nil {
		logger.Warn("create order failed", zap.String("kind", kind), zap.Error(err))
		commons.HandleError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.CreateOrderResponse{
		TraceID:   traceID,
		Order:     dto.NewOrderResponse(result.Order),
		Applied:   dto.NewStockChangeDTOs(result.Applied),
		Skipped:   dto.NewSkippedItemDTOs(result.Skipped),
		Timestamp: time.Now().UTC(),
	}, c.logger)
}

func (c *OrderController) SetStatus(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	var req dto.UpdateStatusRequest
	if ve := commons.DecodeJSON(r, &req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}
	if ve := commons.Validate(req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}

	result, err := c.useCase.SetStatus(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "orderId"), req.Status)
	c.writeTransition(w, traceID, result, err)
}

func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	result, err := c.useCase.Cancel(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "orderId"))
	c.writeTransition(w, traceID, result, err)
}

func (c *OrderController) writeTransition(w http.ResponseWriter, traceID string, result *dto.TransitionResult, err error) {
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger.With(zap.String("traceId", traceID)))
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.TransitionResponse{
		TraceID:        traceID,
		OrderID:        result.OrderID,
		OrderNumber:    result.OrderNumber,
		PreviousStatus: string(result.PreviousStatus),
		Status:         string(result.Status),
		Changed:        result.Changed,
		Applied:        dto.NewStockChangeDTOs(result.Applied),
		Skipped:        dto.NewSkippedItemDTOs(result.Skipped),
		Timestamp:      time.Now().UTC(),
	}, c.logger)
}
