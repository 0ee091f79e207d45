package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/repository"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// externalTimeout bounds each store or broker call made during fulfillment.
const externalTimeout = 30 * time.Second

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

type OrderService interface {
	HandlePaymentSucceeded(ctx context.Context, event *generalDomain.PaymentSucceededEvent) error
	ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	ListRecentOrders(ctx context.Context, limit int64) ([]*domain.Order, error)
	OrderChart(ctx context.Context) ([]domain.ChartPoint, error)
}

type orderService struct {
	logger    *zap.Logger
	orderRepo repository.OrderRepository
	ledger    inventory.Ledger
	producer  Producer
	tracer    trace.Tracer
}

func NewOrderService(
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	ledger inventory.Ledger,
	producer Producer,
) OrderService {
	return &orderService{
		logger:    logger,
		orderRepo: orderRepo,
		ledger:    ledger,
		producer:  producer,
		tracer:    otel.Tracer("order_service"),
	}
}

// HandlePaymentSucceeded runs fulfillment for one confirmed payment:
// persist the order, decrement inventory per line item, emit order.created.
// A session already recorded is a replayed delivery and ends the run as a
// no-op. A single item's inventory failure never aborts the remaining items.
func (s *orderService) HandlePaymentSucceeded(ctx context.Context, event *generalDomain.PaymentSucceededEvent) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandlePaymentSucceeded")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", event.SessionID),
		attribute.Int("item_count", len(event.Products)),
	)

	order := buildOrder(event)

	saveCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	err := s.orderRepo.CreateOrder(saveCtx, order)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			mylogger.Info(
				ctx,
				s.logger,
				"Duplicate payment delivery, order already recorded",
				zap.String("sessionId", event.SessionID),
			)

			return nil
		}

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to save order",
			zap.String("sessionId", event.SessionID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to save order: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order saved",
		zap.String("orderId", order.ID),
		zap.Int("items", len(order.Products)),
	)

	for _, item := range order.Products {
		s.decrementStock(ctx, order.ID, item)
	}

	s.publishOrderCreated(ctx, order)

	return nil
}

func (s *orderService) decrementStock(ctx context.Context, orderID string, item domain.LineItem) {
	if item.ProductID == "" {
		mylogger.Warn(
			ctx,
			s.logger,
			"Line item has no product id, skipping inventory decrement",
			zap.String("orderId", orderID),
			zap.String("name", item.Name),
		)

		return
	}

	addCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	size := inventory.NormalizeSize(item.Size)

	record, err := s.ledger.Add(addCtx, item.ProductID, inventory.Quantities{size: -item.Quantity})
	if err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Inventory decrement failed, continuing with remaining items",
			zap.String("orderId", orderID),
			zap.String("productId", item.ProductID),
			zap.Error(err),
		)

		return
	}

	if record.NeedsReconciliation() {
		mylogger.Warn(
			ctx,
			s.logger,
			"Inventory record needs reconciliation",
			zap.String("productId", item.ProductID),
		)
	}
}

func (s *orderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	produceCtx, cancel := context.WithTimeout(ctx, externalTimeout)
	defer cancel()

	event := &generalDomain.OrderCreatedEvent{
		Email:  order.Email,
		Amount: order.Amount,
		Status: string(order.Status),
	}

	if err := s.producer.ProduceMessage(produceCtx, generalDomain.TopicOrderCreated, event); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to publish order created event, order is already persisted",
			zap.String("orderId", order.ID),
			zap.Error(err),
		)
	}
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListUserOrders")
	defer span.End()

	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderService) ListRecentOrders(ctx context.Context, limit int64) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListRecentOrders")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	return s.orderRepo.ListRecent(ctx, limit)
}

func (s *orderService) OrderChart(ctx context.Context) ([]domain.ChartPoint, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.OrderChart")
	defer span.End()

	return s.orderRepo.OrderChart(ctx, 6)
}

func buildOrder(event *generalDomain.PaymentSucceededEvent) *domain.Order {
	items := make([]domain.LineItem, 0, len(event.Products))
	for _, line := range event.Products {
		items = append(items, domain.LineItem{
			ProductID: line.ID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
			Size:      string(inventory.NormalizeSize(line.Size)),
		})
	}

	return &domain.Order{
		ID:        uuid.NewString(),
		UserID:    event.UserID,
		Email:     event.Email,
		Products:  items,
		Amount:    event.Amount,
		Status:    orderStatusFromPayment(event.Status),
		SessionID: event.SessionID,
		CreatedAt: time.Now().UTC(),
	}
}

func orderStatusFromPayment(paymentStatus string) domain.OrderStatus {
	switch paymentStatus {
	case "paid", "complete", "success":
		return domain.OrderStatusSuccess
	case "failed":
		return domain.OrderStatusFailed
	default:
		return domain.OrderStatusPending
	}
}
