package product

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"almoxarife/internal/commons"
	"almoxarife/internal/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Controller struct {
	service Service
	useCase SearchUseCase
	ledger  LedgerService
	logger  *zap.Logger
}

func NewController(service Service, useCase SearchUseCase, ledger LedgerService, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		useCase: useCase,
		ledger:  ledger,
		logger:  logger,
	}
}

func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	products, err := c.service.List(r.Context())
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.ProductListResponse{
		TraceID:  traceID,
		Products: dto.NewProductResponses(products),
	}, c.logger)
}

func (c *Controller) HandleGet(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	p, err := c.service.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NewProductResponse(*p), c.logger)
}

func (c *Controller) HandleRegister(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.RegisterProductRequest
	if ve := commons.DecodeJSON(r, &req); ve != nil {
		logger.Warn("invalid JSON body")
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}
	if ve := commons.Validate(req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}

	p, err := c.service.Register(r.Context(), req)
	if err != nil {
		commons.HandleError(w, traceID, err, logger)
		return
	}

	commons.WriteJSON(w, http.StatusCreated, dto.NewProductResponse(*p), c.logger)
}

func (c *Controller) HandleRemove(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	if err := c.service.Remove(r.Context(), chi.URLParam(r, "productId")); err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) HandleSearchProducts(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	var req dto.SearchProductsRequest
	if ve := commons.DecodeJSON(r, &req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}
	if ve := commons.Validate(req); ve != nil {
		commons.WriteValidationError(w, traceID, ve.Message, c.logger, ve.Details...)
		return
	}

	resp, err := c.useCase.SearchProducts(r.Context(), req)
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	resp.TraceID = traceID
	commons.WriteJSON(w, http.StatusOK, resp, c.logger)
}

func (c *Controller) HandleMovements(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	h, err := c.ledger.History(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.ProductHistoryResponse{
		TraceID:        traceID,
		Product:        dto.NewProductResponse(h.Product),
		InitialBalance: h.InitialBalance,
		Movements:      dto.NewMovementDTOs(h.Movements),
	}, c.logger)
}

// HandleMovementsXLSX buffers the workbook so a failure still yields a JSON error.
func (c *Controller) HandleMovementsXLSX(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()
	productID := chi.URLParam(r, "productId")

	var buf bytes.Buffer
	if err := c.ledger.ExportXLSX(r.Context(), productID, &buf); err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="movements-`+productID+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		c.logger.Warn("failed to write workbook", zap.String("traceId", traceID), zap.Error(err))
	}
}
