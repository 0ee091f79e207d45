package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/gateway"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrEmptyCart = errors.New("cart is empty")

// degradedLineName stands in for a provider line item with no description.
const degradedLineName = "unknown item"

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

// ResolveResult is the outcome of resolving a checkout session. Published
// reports whether a payment event went out on this call; Degraded marks a
// resolution that had to fall back to provider line items because the cart
// snapshot was missing or unreadable.
type ResolveResult struct {
	Session   *domain.CheckoutSession
	Published bool
	Degraded  bool
}

type CheckoutService interface {
	CreateSession(ctx context.Context, userID string, items []domain.CartItem) (*domain.CheckoutSession, error)
	ResolveSession(ctx context.Context, sessionID string) (*ResolveResult, error)
	HandleProductCreated(ctx context.Context, event *generalDomain.ProductCreatedEvent) error
	HandleProductDeleted(ctx context.Context, event *generalDomain.ProductDeletedEvent) error
}

type checkoutService struct {
	gateway  gateway.Gateway
	producer Producer
	logger   *zap.Logger
	cb       *gobreaker.CircuitBreaker
	tracer   trace.Tracer
}

func NewCheckoutService(gw gateway.Gateway, producer Producer, logger *zap.Logger) CheckoutService {
	settings := gobreaker.Settings{
		Name:        "PaymentProvider",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &checkoutService{
		gateway:  gw,
		producer: producer,
		logger:   logger,
		cb:       gobreaker.NewCircuitBreaker(settings),
		tracer:   otel.Tracer("checkout_service"),
	}
}

// CreateSession prices the cart against the provider-side catalog mirror
// and opens a checkout session with the priced cart pinned into session
// metadata. Client supplied prices are never consulted.
func (s *checkoutService) CreateSession(ctx context.Context, userID string, items []domain.CartItem) (*domain.CheckoutSession, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.CreateSession")
	defer span.End()

	span.SetAttributes(
		attribute.Int("item_count", len(items)),
	)

	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	lines := make([]gateway.SessionLine, 0, len(items))
	snapshot := make([]domain.SnapshotLine, 0, len(items))

	for _, item := range items {
		product, err := utils.ExecuteWithBreaker(s.cb, func() (*domain.CatalogProduct, error) {
			return s.gateway.GetProduct(ctx, item.ProductID)
		})
		if err != nil {
			span.RecordError(err)

			mylogger.Warn(
				ctx,
				s.logger,
				"Failed to price cart item",
				zap.String("productId", item.ProductID),
				zap.Error(err),
			)

			return nil, fmt.Errorf("failed to price cart item %s: %w", item.ProductID, err)
		}

		lines = append(lines, gateway.SessionLine{
			Name:       product.Name,
			UnitAmount: product.Price,
			Quantity:   item.Quantity,
		})

		snapshot = append(snapshot, domain.SnapshotLine{
			ID:       product.ID,
			Name:     product.Name,
			Quantity: item.Quantity,
			Price:    product.Price,
			Size:     string(inventory.NormalizeSize(item.Size)),
		})
	}

	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}

	session, err := utils.ExecuteWithBreaker(s.cb, func() (*domain.CheckoutSession, error) {
		return s.gateway.CreateCheckoutSession(ctx, &gateway.CreateSessionParams{
			ClientReferenceID: userID,
			LineItems:         lines,
			Metadata: map[string]string{
				domain.MetadataCartKey: string(snapshotBytes),
			},
		})
	})
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Checkout session created",
		zap.String("sessionId", session.ID),
		zap.Int("items", len(lines)),
	)

	return session, nil
}

// ResolveSession looks up the session outcome and, when the payment is
// captured, publishes the payment event. Resolution is deliberately not
// idempotent here: resolving a paid session again republishes, and the
// order store's session dedup makes the replay harmless.
func (s *checkoutService) ResolveSession(ctx context.Context, sessionID string) (*ResolveResult, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.ResolveSession")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	session, err := utils.ExecuteWithBreaker(s.cb, func() (*domain.CheckoutSession, error) {
		return s.gateway.GetCheckoutSession(ctx, sessionID)
	})
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	result := &ResolveResult{Session: session}

	if !session.Paid() {
		mylogger.Info(
			ctx,
			s.logger,
			"Session resolved without captured payment",
			zap.String("sessionId", session.ID),
			zap.String("status", session.Status),
			zap.String("paymentStatus", session.PaymentStatus),
		)

		return result, nil
	}

	products, degraded := s.buildProductLines(ctx, session)
	result.Degraded = degraded

	event := &generalDomain.PaymentSucceededEvent{
		UserID:    session.ClientReferenceID,
		Email:     session.Email,
		Amount:    session.AmountTotal,
		Status:    generalDomain.PaymentStatusSuccess,
		SessionID: session.ID,
		Products:  products,
	}

	if err := s.producer.ProduceMessage(ctx, generalDomain.TopicPaymentSuccessful, event); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to publish payment event, session is still resolved",
			zap.String("sessionId", session.ID),
			zap.Error(err),
		)

		return result, nil
	}

	result.Published = true

	mylogger.Info(
		ctx,
		s.logger,
		"Payment event published",
		zap.String("sessionId", session.ID),
		zap.Bool("degraded", degraded),
	)

	return result, nil
}

// buildProductLines prefers the cart snapshot pinned at session creation.
// When the snapshot is absent or unreadable it degrades to the provider's
// own line items, which lack product ids and sizes.
func (s *checkoutService) buildProductLines(ctx context.Context, session *domain.CheckoutSession) ([]generalDomain.ProductLine, bool) {
	raw, ok := session.Metadata[domain.MetadataCartKey]
	if ok && raw != "" {
		var snapshot []domain.SnapshotLine
		if err := json.Unmarshal([]byte(raw), &snapshot); err == nil && len(snapshot) > 0 {
			products := make([]generalDomain.ProductLine, 0, len(snapshot))
			for _, line := range snapshot {
				products = append(products, generalDomain.ProductLine{
					ID:       line.ID,
					Name:     line.Name,
					Quantity: line.Quantity,
					Price:    line.Price,
					Size:     line.Size,
				})
			}

			return products, false
		}

		mylogger.Warn(
			ctx,
			s.logger,
			"Cart snapshot unreadable, degrading to provider line items",
			zap.String("sessionId", session.ID),
		)
	}

	products := make([]generalDomain.ProductLine, 0, len(session.LineItems))
	for _, line := range session.LineItems {
		name := line.Name
		if name == "" {
			// the provider may omit the line description; an empty name
			// would fail event validation downstream and drop the order
			name = degradedLineName
		}

		products = append(products, generalDomain.ProductLine{
			Name:     name,
			Quantity: line.Quantity,
			Price:    line.UnitAmount,
			Size:     string(inventory.SizeMedium),
		})
	}

	return products, true
}

// HandleProductCreated mirrors a new catalog product into the provider.
// A redelivered create for an existing product is a no-op.
func (s *checkoutService) HandleProductCreated(ctx context.Context, event *generalDomain.ProductCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.HandleProductCreated")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", event.ID),
	)

	err := s.gateway.CreateProduct(ctx, &domain.CatalogProduct{
		ID:    event.ID,
		Name:  event.Name,
		Price: event.Price,
	})
	if err != nil {
		if gateway.IsAlreadyExists(err) {
			mylogger.Info(
				ctx,
				s.logger,
				"Product already mirrored",
				zap.String("productId", event.ID),
			)

			return nil
		}

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to mirror product",
			zap.String("productId", event.ID),
			zap.Error(err),
		)

		return err
	}

	return nil
}

func (s *checkoutService) HandleProductDeleted(ctx context.Context, event *generalDomain.ProductDeletedEvent) error {
	ctx, span := s.tracer.Start(ctx, "CheckoutService.HandleProductDeleted")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", event.ID),
	)

	err := s.gateway.DeactivateProduct(ctx, event.ID)
	if err != nil {
		if errors.Is(err, gateway.ErrProductNotFound) {
			mylogger.Info(
				ctx,
				s.logger,
				"Product already absent from provider",
				zap.String("productId", event.ID),
			)

			return nil
		}

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to deactivate mirrored product",
			zap.String("productId", event.ID),
			zap.Error(err),
		)

		return err
	}

	return nil
}
