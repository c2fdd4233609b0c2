package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
)

type TransitionService interface {
	SetStatus(ctx context.Context, kind domain.OrderKind, orderID string, newStatus domain.OrderStatus) (*dto.TransitionResult, error)
	Create(ctx context.Context, in dto.NewOrder) (*dto.CreateResult, error)
}

type OrderReader interface {
	ListOrders(ctx context.Context, kind domain.OrderKind) ([]domain.Order, error)
	GetOrder(ctx context.Context, kind domain.OrderKind, orderID string) (*domain.Order, error)
}

type OrderUseCase struct {
	reader           OrderReader
	transitions      TransitionService
	logger           *zap.Logger
	maxRetryAttempts int
	sleep            func(ctx context.Context, d time.Duration) error
}

func NewOrderUseCase(
	reader OrderReader,
	transitions TransitionService,
	logger *zap.Logger,
	maxRetryAttempts int,
) *OrderUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &OrderUseCase{
		reader:           reader,
		transitions:      transitions,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		sleep:            sleepContext,
	}
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, kind string) ([]domain.Order, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	return uc.reader.ListOrders(ctx, k)
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, kind string, orderID string) (*domain.Order, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}
	return uc.reader.GetOrder(ctx, k, orderID)
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, kind string, req dto.CreateOrderRequest) (*dto.CreateResult, error) {
	// Bloque 1: Parsear entradas
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}

	in := dto.NewOrder{
		Kind:      k,
		PartyID:   req.PartyID,
		PartyName: req.PartyName,
		Items:     make([]dto.NewOrderItem, len(req.Items)),
	}

	if req.Status != "" {
		status, ok := k.ParseStatus(req.Status)
		if !ok {
			return nil, apperrors.NewInvalidStatusError(string(k), req.Status)
		}
		in.Status = status
	}

	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
				Field:   "date",
				Message: "date must be formatted as YYYY-MM-DD",
			})
		}
		in.Date = date
	}

	for i, item := range req.Items {
		in.Items[i] = dto.NewOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	uc.logger.Info("create order started", zap.String("kind", string(k)), zap.String("partyId", req.PartyID), zap.Int("itemCount", len(req.Items)))

	// Bloque 2: Llamar service con retry
	var result *dto.CreateResult
	err = uc.withDeadlockRetry(ctx, "create order", func() error {
		var err error
		result, err = uc.transitions.Create(ctx, in)
		return err
	})
	return result, err
}

func (uc *OrderUseCase) SetStatus(ctx context.Context, kind string, orderID string, status string) (*dto.TransitionResult, error) {
	k, err := parseKind(kind)
	if err != nil {
		return nil, err
	}

	newStatus, ok := k.ParseStatus(status)
	if !ok {
		return nil, apperrors.NewInvalidStatusError(string(k), status)
	}

	uc.logger.Info("set status started", zap.String("kind", string(k)), zap.String("orderId", orderID), zap.String("status", string(newStatus)))

	var result *dto.TransitionResult
	err = uc.withDeadlockRetry(ctx, "set status", func() error {
		var err error
		result, err = uc.transitions.SetStatus(ctx, k, orderID, newStatus)
		return err
	})
	return result, err
}

func (uc *OrderUseCase) Cancel(ctx context.Context, kind string, orderID string) (*dto.TransitionResult, error) {
	return uc.SetStatus(ctx, kind, orderID, string(domain.OrderStatusCancelled))
}

// withDeadlockRetry reruns fn while it fails with a MySQL deadlock or lock
// wait timeout, backing off 0ms, 100ms, 200ms... with ±20% jitter.
func (uc *OrderUseCase) withDeadlockRetry(ctx context.Context, operation string, fn func() error) error {
	maxAttempts := uc.maxRetryAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if !isDeadlockError(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		base := time.Duration(attempt-1) * 100 * time.Millisecond
		jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
		uc.logger.Warn("deadlock detected, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts))

		if err := uc.sleep(ctx, base+jitter); err != nil {
			return err
		}
	}

	uc.logger.Error("deadlock retries exhausted", zap.String("operation", operation), zap.Int("maxAttempts", maxAttempts))
	return apperrors.NewDeadlockError("max retries exceeded")
}

func parseKind(kind string) (domain.OrderKind, error) {
	k, ok := domain.ParseOrderKind(kind)
	if !ok {
		return "", apperrors.NewValidationError("invalid order kind", apperrors.ValidationDetail{
			Field:   "kind",
			Message: "kind must be sales or purchase",
		})
	}
	return k, nil
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
