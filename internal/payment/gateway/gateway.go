package gateway

import (
	"context"
	"errors"

	"github.com/JonOng2002/microservices-ecommerce/internal/payment/domain"
)

var (
	ErrProductNotFound = errors.New("product not found at payment provider")
	ErrPriceNotFound   = errors.New("no active price for product")
	ErrSessionNotFound = errors.New("checkout session not found")
)

// CreateSessionParams carries everything the provider needs to open a
// checkout session. Metadata is pinned into the session and travels back
// verbatim on retrieval.
type CreateSessionParams struct {
	ClientReferenceID string
	LineItems         []SessionLine
	Metadata          map[string]string
}

type SessionLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// Gateway abstracts the payment provider. The checkout coordinator only
// ever talks to the provider through this interface.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params *CreateSessionParams) (*domain.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
	GetProduct(ctx context.Context, productID string) (*domain.CatalogProduct, error)
	CreateProduct(ctx context.Context, product *domain.CatalogProduct) error
	DeactivateProduct(ctx context.Context, productID string) error
}
