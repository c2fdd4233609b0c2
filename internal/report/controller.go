package report

import (
	"net/http"

	"go.uber.org/zap"

	"almoxarife/internal/commons"
	"almoxarife/internal/dto"
)

type Controller struct {
	service *Service
	logger  *zap.Logger
}

func NewController(service *Service, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	d, err := c.service.Dashboard(r.Context())
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.DashboardResponse{TraceID: traceID, Dashboard: *d}, c.logger)
}
