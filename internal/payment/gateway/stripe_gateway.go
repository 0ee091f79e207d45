package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonOng2002/microservices-ecommerce/internal/payment/domain"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const currency = "usd"

type stripeGateway struct {
	api       *client.API
	returnURL string
	tracer    trace.Tracer
	logger    *zap.Logger
}

func NewStripeGateway(secretKey, returnURL string, logger *zap.Logger) Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &stripeGateway{
		api:       api,
		returnURL: returnURL,
		tracer:    otel.Tracer("payment/gateway"),
		logger:    logger,
	}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, params *CreateSessionParams) (*domain.CheckoutSession, error) {
	ctx, span := g.tracer.Start(ctx, "Gateway.CreateCheckoutSession")
	defer span.End()

	span.SetAttributes(
		attribute.Int("line_items", len(params.LineItems)),
	)

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, line := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(line.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(line.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
			},
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		ReturnURL: stripe.String(g.returnURL),
		LineItems: lineItems,
	}
	sessionParams.Context = ctx

	if params.ClientReferenceID != "" {
		sessionParams.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}

	for key, value := range params.Metadata {
		sessionParams.AddMetadata(key, value)
	}

	session, err := g.api.CheckoutSessions.New(sessionParams)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return fromStripeSession(session), nil
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	ctx, span := g.tracer.Start(ctx, "Gateway.GetCheckoutSession")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", sessionID),
	)

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	session, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		span.RecordError(err)

		if isStripeMissing(err) {
			return nil, ErrSessionNotFound
		}

		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}

	return fromStripeSession(session), nil
}

func (g *stripeGateway) GetProduct(ctx context.Context, productID string) (*domain.CatalogProduct, error) {
	ctx, span := g.tracer.Start(ctx, "Gateway.GetProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
	)

	params := &stripe.ProductParams{}
	params.Context = ctx
	params.AddExpand("default_price")

	product, err := g.api.Products.Get(productID, params)
	if err != nil {
		span.RecordError(err)

		if isStripeMissing(err) {
			return nil, ErrProductNotFound
		}

		return nil, fmt.Errorf("stripe get product: %w", err)
	}

	price, err := g.resolvePrice(ctx, product)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	return &domain.CatalogProduct{
		ID:    product.ID,
		Name:  product.Name,
		Price: price,
	}, nil
}

// resolvePrice prefers the expanded default price and falls back to
// listing active prices, which covers products created before a default
// price was attached.
func (g *stripeGateway) resolvePrice(ctx context.Context, product *stripe.Product) (int64, error) {
	if product.DefaultPrice != nil && product.DefaultPrice.UnitAmount > 0 {
		return product.DefaultPrice.UnitAmount, nil
	}

	listParams := &stripe.PriceListParams{
		Product: stripe.String(product.ID),
		Active:  stripe.Bool(true),
	}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)

	iter := g.api.Prices.List(listParams)
	for iter.Next() {
		return iter.Price().UnitAmount, nil
	}

	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("stripe list prices: %w", err)
	}

	return 0, ErrPriceNotFound
}

func (g *stripeGateway) CreateProduct(ctx context.Context, product *domain.CatalogProduct) error {
	ctx, span := g.tracer.Start(ctx, "Gateway.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", product.ID),
	)

	params := &stripe.ProductParams{
		ID:   stripe.String(product.ID),
		Name: stripe.String(product.Name),
		DefaultPriceData: &stripe.ProductDefaultPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(product.Price),
		},
	}
	params.Context = ctx

	_, err := g.api.Products.New(params)
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("stripe create product: %w", err)
	}

	return nil
}

func (g *stripeGateway) DeactivateProduct(ctx context.Context, productID string) error {
	ctx, span := g.tracer.Start(ctx, "Gateway.DeactivateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
	)

	params := &stripe.ProductParams{
		Active: stripe.Bool(false),
	}
	params.Context = ctx

	_, err := g.api.Products.Update(productID, params)
	if err != nil {
		span.RecordError(err)

		if isStripeMissing(err) {
			return ErrProductNotFound
		}

		return fmt.Errorf("stripe deactivate product: %w", err)
	}

	return nil
}

func fromStripeSession(session *stripe.CheckoutSession) *domain.CheckoutSession {
	result := &domain.CheckoutSession{
		ID:                session.ID,
		ClientSecret:      session.ClientSecret,
		Status:            string(session.Status),
		PaymentStatus:     string(session.PaymentStatus),
		ClientReferenceID: session.ClientReferenceID,
		AmountTotal:       session.AmountTotal,
		Metadata:          session.Metadata,
	}

	if session.CustomerDetails != nil {
		result.Email = session.CustomerDetails.Email
	}

	if session.LineItems != nil {
		for _, line := range session.LineItems.Data {
			item := domain.SessionLineItem{
				Name:     line.Description,
				Quantity: line.Quantity,
			}
			if line.Price != nil {
				item.UnitAmount = line.Price.UnitAmount
			}

			result.LineItems = append(result.LineItems, item)
		}
	}

	return result
}

// IsAlreadyExists reports whether the provider rejected a create because
// the resource already exists.
func IsAlreadyExists(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeResourceAlreadyExists
	}

	return false
}

func isStripeMissing(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodeResourceMissing
	}

	return false
}
