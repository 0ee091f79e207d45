package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/JonOng2002/microservices-ecommerce/internal/payment/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/gateway"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGateway struct {
	products       map[string]*domain.CatalogProduct
	sessions       map[string]*domain.CheckoutSession
	created        []*gateway.CreateSessionParams
	createdMirrors []*domain.CatalogProduct
	deactivated    []string
	createErr      error
	mirrorErr      error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: make(map[string]*domain.CatalogProduct),
		sessions: make(map[string]*domain.CheckoutSession),
	}
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, params *gateway.CreateSessionParams) (*domain.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	f.created = append(f.created, params)

	var total int64
	for _, line := range params.LineItems {
		total += line.UnitAmount * line.Quantity
	}

	session := &domain.CheckoutSession{
		ID:                "cs_test_1",
		ClientSecret:      "secret",
		Status:            "open",
		PaymentStatus:     "unpaid",
		ClientReferenceID: params.ClientReferenceID,
		AmountTotal:       total,
		Metadata:          params.Metadata,
	}
	f.sessions[session.ID] = session

	return session, nil
}

func (f *fakeGateway) GetCheckoutSession(_ context.Context, sessionID string) (*domain.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, gateway.ErrSessionNotFound
	}

	return session, nil
}

func (f *fakeGateway) GetProduct(_ context.Context, productID string) (*domain.CatalogProduct, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, gateway.ErrProductNotFound
	}

	return product, nil
}

func (f *fakeGateway) CreateProduct(_ context.Context, product *domain.CatalogProduct) error {
	if f.mirrorErr != nil {
		return f.mirrorErr
	}

	f.createdMirrors = append(f.createdMirrors, product)
	f.products[product.ID] = product

	return nil
}

func (f *fakeGateway) DeactivateProduct(_ context.Context, productID string) error {
	if _, ok := f.products[productID]; !ok {
		return gateway.ErrProductNotFound
	}

	f.deactivated = append(f.deactivated, productID)

	return nil
}

type producedMessage struct {
	topic   string
	message interface{}
}

type fakeProducer struct {
	produced []producedMessage
	err      error
}

func (f *fakeProducer) ProduceMessage(_ context.Context, topic string, message interface{}) error {
	if f.err != nil {
		return f.err
	}

	f.produced = append(f.produced, producedMessage{topic: topic, message: message})

	return nil
}

func newCheckout(gw gateway.Gateway, producer Producer) CheckoutService {
	return NewCheckoutService(gw, producer, zap.NewNop())
}

func TestCreateSessionPricesFromCatalog(t *testing.T) {
	gw := newFakeGateway()
	gw.products["p1"] = &domain.CatalogProduct{ID: "p1", Name: "Hoodie", Price: 2100}
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	session, err := svc.CreateSession(context.Background(), "user-1", []domain.CartItem{
		{ProductID: "p1", Quantity: 2, Size: "large"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)

	require.Len(t, gw.created, 1)
	params := gw.created[0]
	assert.Equal(t, "user-1", params.ClientReferenceID)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(2100), params.LineItems[0].UnitAmount)

	var snapshot []domain.SnapshotLine
	require.NoError(t, json.Unmarshal([]byte(params.Metadata[domain.MetadataCartKey]), &snapshot))
	require.Len(t, snapshot, 1)
	assert.Equal(t, "p1", snapshot[0].ID)
	assert.Equal(t, int64(2100), snapshot[0].Price)
	assert.Equal(t, "l", snapshot[0].Size)
}

func TestCreateSessionRejectsEmptyCart(t *testing.T) {
	svc := newCheckout(newFakeGateway(), &fakeProducer{})

	_, err := svc.CreateSession(context.Background(), "user-1", nil)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSessionRejectsUnknownProduct(t *testing.T) {
	svc := newCheckout(newFakeGateway(), &fakeProducer{})

	_, err := svc.CreateSession(context.Background(), "user-1", []domain.CartItem{
		{ProductID: "missing", Quantity: 1},
	})
	assert.ErrorIs(t, err, gateway.ErrProductNotFound)
}

func paidSession(metadata map[string]string) *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:                "cs_test_paid",
		Status:            domain.SessionStatusComplete,
		PaymentStatus:     domain.PaymentStatusPaid,
		ClientReferenceID: "user-1",
		Email:             "buyer@example.com",
		AmountTotal:       4200,
		Metadata:          metadata,
		LineItems: []domain.SessionLineItem{
			{Name: "Hoodie", Quantity: 2, UnitAmount: 2100},
		},
	}
}

func snapshotMetadata(t *testing.T) map[string]string {
	t.Helper()

	snapshot := []domain.SnapshotLine{
		{ID: "p1", Name: "Hoodie", Quantity: 2, Price: 2100, Size: "l"},
	}
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	return map[string]string{domain.MetadataCartKey: string(raw)}
}

func TestResolveSessionPublishesPaymentEvent(t *testing.T) {
	gw := newFakeGateway()
	gw.sessions["cs_test_paid"] = paidSession(snapshotMetadata(t))
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	result, err := svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.False(t, result.Degraded)

	require.Len(t, producer.produced, 1)
	assert.Equal(t, generalDomain.TopicPaymentSuccessful, producer.produced[0].topic)

	event, ok := producer.produced[0].message.(*generalDomain.PaymentSucceededEvent)
	require.True(t, ok)
	assert.Equal(t, "cs_test_paid", event.SessionID)
	assert.Equal(t, "buyer@example.com", event.Email)
	// the wire status is the fixed literal, never the provider's "paid"
	assert.Equal(t, "success", event.Status)
	require.Len(t, event.Products, 1)
	assert.Equal(t, "p1", event.Products[0].ID)
	assert.Equal(t, "l", event.Products[0].Size)
}

func TestResolveSessionDegradesWithoutSnapshot(t *testing.T) {
	gw := newFakeGateway()
	gw.sessions["cs_test_paid"] = paidSession(nil)
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	result, err := svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.True(t, result.Degraded)

	event, ok := producer.produced[0].message.(*generalDomain.PaymentSucceededEvent)
	require.True(t, ok)
	require.Len(t, event.Products, 1)
	assert.Empty(t, event.Products[0].ID)
	assert.Equal(t, "m", event.Products[0].Size)
	assert.Equal(t, int64(2), event.Products[0].Quantity)
}

func TestResolveSessionDegradedLineWithoutNameStaysDeliverable(t *testing.T) {
	session := paidSession(nil)
	session.LineItems = []domain.SessionLineItem{
		{Name: "", Quantity: 1, UnitAmount: 4200},
	}
	gw := newFakeGateway()
	gw.sessions["cs_test_paid"] = session
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	result, err := svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	assert.True(t, result.Published)
	assert.True(t, result.Degraded)

	event, ok := producer.produced[0].message.(*generalDomain.PaymentSucceededEvent)
	require.True(t, ok)
	require.Len(t, event.Products, 1)
	assert.Equal(t, "unknown item", event.Products[0].Name)

	// the event must survive boundary validation on the consumer side
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	_, err = generalDomain.Decode[generalDomain.PaymentSucceededEvent](raw)
	assert.NoError(t, err)
}

func TestResolveUnpaidSessionDoesNotPublish(t *testing.T) {
	gw := newFakeGateway()
	gw.sessions["cs_open"] = &domain.CheckoutSession{
		ID:            "cs_open",
		Status:        "open",
		PaymentStatus: "unpaid",
	}
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	result, err := svc.ResolveSession(context.Background(), "cs_open")
	require.NoError(t, err)
	assert.False(t, result.Published)
	assert.Empty(t, producer.produced)
}

func TestResolveSessionRepublishesOnReplay(t *testing.T) {
	gw := newFakeGateway()
	gw.sessions["cs_test_paid"] = paidSession(snapshotMetadata(t))
	producer := &fakeProducer{}
	svc := newCheckout(gw, producer)

	_, err := svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	_, err = svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)

	// replay publishes again; the order store deduplicates downstream
	assert.Len(t, producer.produced, 2)
}

func TestResolveSessionPublishFailureIsNotFatal(t *testing.T) {
	gw := newFakeGateway()
	gw.sessions["cs_test_paid"] = paidSession(snapshotMetadata(t))
	producer := &fakeProducer{err: errors.New("kafka down")}
	svc := newCheckout(gw, producer)

	result, err := svc.ResolveSession(context.Background(), "cs_test_paid")
	require.NoError(t, err)
	assert.False(t, result.Published)
	assert.Equal(t, "cs_test_paid", result.Session.ID)
}

func TestHandleProductCreatedMirrorsProduct(t *testing.T) {
	gw := newFakeGateway()
	svc := newCheckout(gw, &fakeProducer{})

	err := svc.HandleProductCreated(context.Background(), &generalDomain.ProductCreatedEvent{
		ID:    "p1",
		Name:  "Hoodie",
		Price: 2100,
	})
	require.NoError(t, err)
	require.Len(t, gw.createdMirrors, 1)
	assert.Equal(t, "p1", gw.createdMirrors[0].ID)
}

func TestHandleProductDeletedIgnoresMissingProduct(t *testing.T) {
	svc := newCheckout(newFakeGateway(), &fakeProducer{})

	err := svc.HandleProductDeleted(context.Background(), &generalDomain.ProductDeletedEvent{ID: "missing"})
	assert.NoError(t, err)
}
