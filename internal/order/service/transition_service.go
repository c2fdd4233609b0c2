package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"almoxarife/internal/domain"
	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
	"almoxarife/internal/store"
)

type NegativeStockPolicy string

const (
	NegativeStockAllow  NegativeStockPolicy = "allow"
	NegativeStockReject NegativeStockPolicy = "reject"
)

type EventEmitter interface {
	EmitEvents(ctx context.Context, repo store.NotificationRepository, events []domain.Event) error
}

// TransitionService owns every stock mutation: stock changes only as the
// effect of an order entering or leaving its kind's fulfilling status.
type TransitionService struct {
	txRunner  store.TxRunner
	emitter   EventEmitter
	policy    NegativeStockPolicy
	txTimeout time.Duration
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewTransitionService(
	txRunner store.TxRunner,
	emitter EventEmitter,
	policy NegativeStockPolicy,
	txTimeout time.Duration,
	logger *zap.Logger,
) *TransitionService {
	return &TransitionService{
		txRunner:  txRunner,
		emitter:   emitter,
		policy:    policy,
		txTimeout: txTimeout,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *TransitionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.txTimeout)
}

// SetStatus moves an order to newStatus and applies the stock effect of
// entering or leaving the fulfilling status. Setting the current status again
// changes nothing and emits nothing.
func (s *TransitionService) SetStatus(
	ctx context.Context,
	kind domain.OrderKind,
	orderID string,
	newStatus domain.OrderStatus,
) (*dto.TransitionResult, error) {
	if !kind.Valid() {
		return nil, invalidKindError(kind)
	}
	if !kind.Allows(newStatus) {
		return nil, apperrors.NewInvalidStatusError(string(kind), string(newStatus))
	}

	// Bloque 1: Iniciar transacción con timeout
	txCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result *dto.TransitionResult
	err := s.txRunner.RunInTx(txCtx, func(ctx context.Context, repos store.Repositories) error {
		// Bloque 2: Bloquear la orden
		order, err := repos.Orders.FindByIDForUpdate(ctx, kind, orderID)
		if err != nil {
			return err
		}

		result = &dto.TransitionResult{
			OrderID:        order.ID,
			OrderNumber:    order.Number,
			Kind:           kind,
			PreviousStatus: order.Status,
			Status:         newStatus,
			Applied:        []dto.StockChange{},
			Skipped:        []dto.SkippedItem{},
			Events:         []domain.Event{},
		}

		if order.Status == newStatus {
			return nil
		}

		// Bloque 3: Efecto sobre el stock
		if sign := stockEffect(kind, order.Status, newStatus); sign != 0 {
			applied, skipped, events, err := s.applyStock(ctx, repos.Products, *order, sign)
			if err != nil {
				return err
			}
			result.Applied = applied
			result.Skipped = skipped
			result.Events = append(result.Events, events...)
		}

		// Bloque 4: Persistir estado y notificaciones
		if err := repos.Orders.UpdateStatus(ctx, kind, orderID, newStatus); err != nil {
			return err
		}
		result.Changed = true
		result.Events = append(result.Events, statusChangedEvent(*order, newStatus))

		return s.emitter.EmitEvents(ctx, repos.Notifications, result.Events)
	})
	if err != nil {
		s.logger.Warn("status transition aborted",
			zap.String("kind", string(kind)),
			zap.String("orderId", orderID),
			zap.String("status", string(newStatus)),
			zap.Error(err))
		return nil, err
	}

	if !result.Changed {
		s.logger.Debug("status unchanged", zap.String("kind", string(kind)), zap.String("orderId", orderID), zap.String("status", string(newStatus)))
		return result, nil
	}

	s.logger.Info("status transition committed",
		zap.String("kind", string(kind)),
		zap.String("orderId", orderID),
		zap.String("orderNumber", result.OrderNumber),
		zap.String("from", string(result.PreviousStatus)),
		zap.String("to", string(newStatus)),
		zap.Int("appliedCount", len(result.Applied)),
		zap.Int("skippedCount", len(result.Skipped)),
		zap.Int("eventCount", len(result.Events)))

	return result, nil
}

func (s *TransitionService) Cancel(ctx context.Context, kind domain.OrderKind, orderID string) (*dto.TransitionResult, error) {
	return s.SetStatus(ctx, kind, orderID, domain.OrderStatusCancelled)
}

// Create stores a new order with the next display number for its kind and
// year. An order created directly in the fulfilling status carries its stock
// effect from the start.
func (s *TransitionService) Create(ctx context.Context, in dto.NewOrder) (*dto.CreateResult, error) {
	if err := validateNewOrder(in); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	now := s.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	date = startOfDay(date)

	txCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var result *dto.CreateResult
	err := s.txRunner.RunInTx(txCtx, func(ctx context.Context, repos store.Repositories) error {
		// Bloque 1: Bloquear productos por id ASC (anti-deadlock)
		products := make(map[string]*domain.Product)
		for _, id := range distinctProductIDs(in.Items) {
			p, err := repos.Products.FindByIDForUpdate(ctx, id)
			if err != nil {
				return err
			}
			products[id] = p
		}

		// Bloque 2: Numerar e insertar
		seq, err := repos.Orders.NextSequence(ctx, in.Kind, date.Year())
		if err != nil {
			return err
		}

		items := make([]domain.OrderItem, len(in.Items))
		for i, item := range in.Items {
			items[i] = domain.OrderItem{
				ProductID:   item.ProductID,
				ProductName: products[item.ProductID].Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
			}
		}

		order := domain.Order{
			ID:         s.newID(),
			Number:     in.Kind.FormatNumber(date.Year(), seq),
			Kind:       in.Kind,
			PartyID:    in.PartyID,
			PartyName:  in.PartyName,
			Date:       date,
			Status:     status,
			TotalValue: domain.CalculateTotal(items),
			Items:      items,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := repos.Orders.Insert(ctx, order); err != nil {
			return err
		}

		result = &dto.CreateResult{
			Order:   order,
			Applied: []dto.StockChange{},
			Skipped: []dto.SkippedItem{},
			Events:  []domain.Event{},
		}

		// Bloque 3: Efecto inicial sobre el stock
		if !order.Fulfilled() {
			return nil
		}
		applied, skipped, events, err := s.applyStock(ctx, repos.Products, order, in.Kind.StockSign())
		if err != nil {
			return err
		}
		result.Applied = applied
		result.Skipped = skipped
		result.Events = events

		return s.emitter.EmitEvents(ctx, repos.Notifications, events)
	})
	if err != nil {
		s.logger.Warn("order creation aborted", zap.String("kind", string(in.Kind)), zap.Int("itemCount", len(in.Items)), zap.Error(err))
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("kind", string(in.Kind)),
		zap.String("orderId", result.Order.ID),
		zap.String("orderNumber", result.Order.Number),
		zap.String("status", string(result.Order.Status)),
		zap.String("totalValue", result.Order.TotalValue.StringFixed(2)))

	return result, nil
}

// applyStock adjusts stock for every line of order by sign × quantity. Lines
// are visited in ascending product id order so that concurrent transitions
// lock products in the same order.
func (s *TransitionService) applyStock(
	ctx context.Context,
	products store.ProductRepository,
	order domain.Order,
	sign int,
) ([]dto.StockChange, []dto.SkippedItem, []domain.Event, error) {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	applied := []dto.StockChange{}
	skipped := []dto.SkippedItem{}
	events := []domain.Event{}
	crossed := make(map[string]bool)

	for _, item := range items {
		// 1. Lock product
		product, err := products.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			if apperrors.IsProductNotFound(err) {
				s.logger.Warn("order line skipped, product not found",
					zap.String("orderId", order.ID),
					zap.String("productId", item.ProductID),
					zap.Int("quantity", item.Quantity))
				skipped = append(skipped, dto.SkippedItem{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Reason:    dto.SkipProductNotFound,
				})
				continue
			}
			return nil, nil, nil, err
		}

		// 2. Apply delta
		delta := sign * item.Quantity
		before, after, err := products.AdjustStock(ctx, item.ProductID, delta)
		if err != nil {
			return nil, nil, nil, err
		}

		if delta < 0 && after < 0 {
			if s.policy == NegativeStockReject {
				return nil, nil, nil, apperrors.NewConflictError("INSUFFICIENT_STOCK",
					fmt.Sprintf("product %s has %d in stock, %d required", item.ProductID, before, -delta))
			}
			s.logger.Warn("stock below zero",
				zap.String("orderId", order.ID),
				zap.String("productId", item.ProductID),
				zap.Int("before", before),
				zap.Int("after", after))
		}

		applied = append(applied, dto.StockChange{
			ProductID: item.ProductID,
			Delta:     delta,
			Before:    before,
			After:     after,
		})

		// 3. Threshold crossing, sales decrements only
		if order.Kind == domain.OrderKindSales && delta < 0 && !crossed[item.ProductID] && product.CrossedBelowMinimum(before, after) {
			crossed[item.ProductID] = true
			events = append(events, lowStockEvent(order, *product))
		}
	}

	return applied, skipped, events, nil
}

// stockEffect returns the sign to apply to item quantities, or 0 when the
// transition neither enters nor leaves the fulfilling status.
func stockEffect(kind domain.OrderKind, from, to domain.OrderStatus) int {
	entering := kind.IsFulfilling(to) && !kind.IsFulfilling(from)
	leaving := kind.IsFulfilling(from) && !kind.IsFulfilling(to)

	switch {
	case entering:
		return kind.StockSign()
	case leaving:
		return -kind.StockSign()
	default:
		return 0
	}
}

func lowStockEvent(order domain.Order, product domain.Product) domain.Event {
	return domain.Event{
		Type:        domain.EventLowStock,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		ProductID:   product.ID,
		Message:     "Low stock: " + product.Description,
		LinkTo:      "/inventory",
	}
}

func statusChangedEvent(order domain.Order, status domain.OrderStatus) domain.Event {
	return domain.Event{
		Type:        domain.EventStatusChanged,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      status,
		Message:     fmt.Sprintf("Order %s status updated to %s.", order.Number, status),
		LinkTo:      order.Kind.Link(order.ID),
	}
}

func distinctProductIDs(items []dto.NewOrderItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	sort.Strings(ids)
	return ids
}

func invalidKindError(kind domain.OrderKind) error {
	return apperrors.NewValidationError("invalid order kind", apperrors.ValidationDetail{
		Field:   "kind",
		Message: fmt.Sprintf("kind %q must be sales or purchase", kind),
	})
}

func validateNewOrder(in dto.NewOrder) error {
	if !in.Kind.Valid() {
		return invalidKindError(in.Kind)
	}

	var details []apperrors.ValidationDetail

	if in.Status != "" && !in.Kind.Allows(in.Status) {
		details = append(details, apperrors.ValidationDetail{
			Field:   "status",
			Message: "status is not allowed for this order kind",
		})
	}

	if in.PartyID == "" {
		details = append(details, apperrors.ValidationDetail{
			Field:   "partyId",
			Message: "partyId is required",
		})
	}

	if len(in.Items) == 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	for idx, item := range in.Items {
		prefix := "items[" + strconv.Itoa(idx) + "]"
		if item.ProductID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".productId",
				Message: "productId is required",
			})
		}
		if item.Quantity <= 0 {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".quantity",
				Message: "quantity must be greater than zero",
			})
		}
		if item.UnitPrice.IsNegative() {
			details = append(details, apperrors.ValidationDetail{
				Field:   prefix + ".unitPrice",
				Message: "unitPrice must be non-negative",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

// startOfDay keeps the calendar day of t in UTC; order dates carry no time.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
