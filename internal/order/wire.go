package order

import (
	"go.uber.org/zap"

	"almoxarife/internal/config"
	"almoxarife/internal/notification"
	"almoxarife/internal/order/controller"
	"almoxarife/internal/order/service"
	"almoxarife/internal/order/usecase"
	"almoxarife/internal/store"
)

type Module struct {
	Controller  *controller.OrderController
	Transitions *service.TransitionService
}

func NewModule(backend store.Backend, emitter *notification.Emitter, cfg *config.Config, logger *zap.Logger) *Module {
	transitions := service.NewTransitionService(
		backend,
		emitter,
		service.NegativeStockPolicy(cfg.Inventory.NegativeStock),
		cfg.Order.TransitionTxTimeout,
		logger,
	)

	uc := usecase.NewOrderUseCase(
		backend,
		transitions,
		logger,
		cfg.Order.MaxRetryAttempts,
	)

	return &Module{
		Controller:  controller.NewOrderController(uc, logger),
		Transitions: transitions,
	}
}
