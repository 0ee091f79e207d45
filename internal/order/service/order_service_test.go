package service

import (
	"context"
	"errors"
	"testing"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/repository"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeOrderRepo struct {
	orders    []*domain.Order
	sessions  map[string]bool
	createErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{sessions: make(map[string]bool)}
}

func (f *fakeOrderRepo) EnsureIndexes(_ context.Context) error { return nil }

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}

	if order.SessionID != "" && f.sessions[order.SessionID] {
		return repository.ErrDuplicateOrder
	}

	f.sessions[order.SessionID] = true
	f.orders = append(f.orders, order)

	return nil
}

func (f *fakeOrderRepo) GetOrder(_ context.Context, _ string) (*domain.Order, error) {
	return nil, repository.ErrOrderNotFound
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, _ string) ([]*domain.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) ListRecent(_ context.Context, _ int64) ([]*domain.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderRepo) OrderChart(_ context.Context, _ int) ([]domain.ChartPoint, error) {
	return nil, nil
}

type ledgerCall struct {
	productID string
	deltas    inventory.Quantities
}

type fakeLedger struct {
	calls   []ledgerCall
	failFor map[string]error
}

func (f *fakeLedger) Set(_ context.Context, _ *inventory.Record) error { return nil }

func (f *fakeLedger) Add(_ context.Context, productID string, deltas inventory.Quantities) (*inventory.Record, error) {
	f.calls = append(f.calls, ledgerCall{productID: productID, deltas: deltas})

	if err, ok := f.failFor[productID]; ok {
		return nil, err
	}

	return &inventory.Record{ProductID: productID, Quantities: inventory.Quantities{}}, nil
}

func (f *fakeLedger) Get(_ context.Context, _ string) (*inventory.Record, error) {
	return nil, inventory.ErrRecordNotFound
}

func (f *fakeLedger) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeLedger) List(_ context.Context) ([]*inventory.Record, error) { return nil, nil }

func (f *fakeLedger) ListLowStock(_ context.Context) ([]*inventory.Record, error) { return nil, nil }

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

func paymentEvent() *generalDomain.PaymentSucceededEvent {
	return &generalDomain.PaymentSucceededEvent{
		UserID:    "user-1",
		Email:     "buyer@example.com",
		Amount:    6300,
		Status:    "paid",
		SessionID: "cs_test_1",
		Products: []generalDomain.ProductLine{
			{ID: "p1", Name: "Hoodie", Quantity: 2, Price: 2100, Size: "large"},
			{ID: "p2", Name: "Tee", Quantity: 1, Price: 2100, Size: ""},
		},
	}
}

func newService(repo repository.OrderRepository, ledger inventory.Ledger, producer Producer) OrderService {
	return NewOrderService(zap.NewNop(), repo, ledger, producer)
}

func TestFulfillmentCreatesOrderAndDecrementsStock(t *testing.T) {
	repo := newFakeOrderRepo()
	ledger := &fakeLedger{}
	producer := &fakeProducer{}
	svc := newService(repo, ledger, producer)

	err := svc.HandlePaymentSucceeded(context.Background(), paymentEvent())
	require.NoError(t, err)

	require.Len(t, repo.orders, 1)
	order := repo.orders[0]
	assert.Equal(t, "cs_test_1", order.SessionID)
	assert.Equal(t, domain.OrderStatusSuccess, order.Status)
	assert.Equal(t, int64(6300), order.Amount)
	require.Len(t, order.Products, 2)
	assert.Equal(t, "l", order.Products[0].Size)
	assert.Equal(t, "m", order.Products[1].Size)

	require.Len(t, ledger.calls, 2)
	assert.Equal(t, "p1", ledger.calls[0].productID)
	assert.Equal(t, int64(-2), ledger.calls[0].deltas[inventory.SizeLarge])
	assert.Equal(t, "p2", ledger.calls[1].productID)
	assert.Equal(t, int64(-1), ledger.calls[1].deltas[inventory.SizeMedium])

	require.Len(t, producer.produced, 1)
	assert.Equal(t, generalDomain.TopicOrderCreated, producer.produced[0].topic)

	created, ok := producer.produced[0].message.(*generalDomain.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "buyer@example.com", created.Email)
	assert.Equal(t, int64(6300), created.Amount)
}

func TestFulfillmentIsolatesInventoryFailures(t *testing.T) {
	repo := newFakeOrderRepo()
	ledger := &fakeLedger{failFor: map[string]error{"p1": errors.New("redis down")}}
	producer := &fakeProducer{}
	svc := newService(repo, ledger, producer)

	err := svc.HandlePaymentSucceeded(context.Background(), paymentEvent())
	require.NoError(t, err)

	// order persisted, both decrements attempted, event still published
	assert.Len(t, repo.orders, 1)
	assert.Len(t, ledger.calls, 2)
	assert.Len(t, producer.produced, 1)
}

func TestDuplicateSessionDeliveryIsNoOp(t *testing.T) {
	repo := newFakeOrderRepo()
	ledger := &fakeLedger{}
	producer := &fakeProducer{}
	svc := newService(repo, ledger, producer)

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), paymentEvent()))
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), paymentEvent()))

	assert.Len(t, repo.orders, 1)
	assert.Len(t, ledger.calls, 2)
	assert.Len(t, producer.produced, 1)
}

func TestStoreFailureAbortsFulfillment(t *testing.T) {
	repo := newFakeOrderRepo()
	repo.createErr = errors.New("mongo unavailable")
	ledger := &fakeLedger{}
	producer := &fakeProducer{}
	svc := newService(repo, ledger, producer)

	err := svc.HandlePaymentSucceeded(context.Background(), paymentEvent())
	require.Error(t, err)

	assert.Empty(t, ledger.calls)
	assert.Empty(t, producer.produced)
}

func TestLineItemWithoutProductIDSkipsDecrement(t *testing.T) {
	repo := newFakeOrderRepo()
	ledger := &fakeLedger{}
	producer := &fakeProducer{}
	svc := newService(repo, ledger, producer)

	event := paymentEvent()
	event.Products = []generalDomain.ProductLine{
		{Name: "Hoodie", Quantity: 1, Price: 2100, Size: "m"},
	}

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), event))

	assert.Len(t, repo.orders, 1)
	assert.Empty(t, ledger.calls)
	assert.Len(t, producer.produced, 1)
}

func TestPublishFailureDoesNotFailFulfillment(t *testing.T) {
	repo := newFakeOrderRepo()
	ledger := &fakeLedger{}
	producer := &fakeProducer{err: errors.New("kafka down")}
	svc := newService(repo, ledger, producer)

	err := svc.HandlePaymentSucceeded(context.Background(), paymentEvent())
	require.NoError(t, err)

	assert.Len(t, repo.orders, 1)
	assert.Len(t, ledger.calls, 2)
}
