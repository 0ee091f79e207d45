package domain

// CartItem is a client supplied cart entry. The client never supplies a
// price: the amount charged always comes from the catalog.
type CartItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Size      string `json:"size"`
}

// CatalogProduct is the provider-side product mirror entry used for
// pricing a checkout.
type CatalogProduct struct {
	ID    string
	Name  string
	Price int64
}

// SessionLineItem is a purchased line as reported by the payment provider.
type SessionLineItem struct {
	Name       string
	Quantity   int64
	UnitAmount int64
}

const (
	SessionStatusComplete = "complete"
	PaymentStatusPaid     = "paid"
)

// CheckoutSession mirrors the provider session state the coordinator needs:
// enough to hand a client secret to the storefront and to resolve the
// outcome afterwards.
type CheckoutSession struct {
	ID                string            `json:"sessionId"`
	ClientSecret      string            `json:"clientSecret,omitempty"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"paymentStatus"`
	ClientReferenceID string            `json:"clientReferenceId,omitempty"`
	Email             string            `json:"email,omitempty"`
	AmountTotal       int64             `json:"amountTotal"`
	Metadata          map[string]string `json:"-"`
	LineItems         []SessionLineItem `json:"-"`
}

// Paid reports whether the session finished with a captured payment.
func (s *CheckoutSession) Paid() bool {
	return s.Status == SessionStatusComplete && s.PaymentStatus == PaymentStatusPaid
}

// SnapshotLine is one entry of the cart snapshot pinned into session
// metadata at creation time and read back during resolution.
type SnapshotLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
	Size     string `json:"size"`
}

// MetadataCartKey is the session metadata key holding the cart snapshot.
const MetadataCartKey = "cartItems"
