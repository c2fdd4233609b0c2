package product

import (
	"go.uber.org/zap"
)

func NewModule(repo Repository, ledger LedgerService, logger *zap.Logger) *Controller {
	svc := NewService(repo, logger)
	uc := NewSearchUseCase(svc)
	return NewController(svc, uc, ledger, logger)
}
