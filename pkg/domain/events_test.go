package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePaymentSucceededEvent(t *testing.T) {
	payload := []byte(`{
		"email": "buyer@example.com",
		"amount": 4200,
		"status": "paid",
		"sessionId": "cs_test_123",
		"products": [
			{"id": "p1", "name": "Hoodie", "quantity": 2, "price": 2100, "size": "l"}
		]
	}`)

	event, err := Decode[PaymentSucceededEvent](payload)
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", event.Email)
	assert.Equal(t, "cs_test_123", event.SessionID)
	require.Len(t, event.Products, 1)
	assert.Equal(t, int64(2), event.Products[0].Quantity)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode[PaymentSucceededEvent]([]byte(`{"email": `))
	assert.Error(t, err)
}

func TestDecodeRejectsInvalidPayload(t *testing.T) {
	// quantity must be positive and products must be non empty
	payload := []byte(`{
		"email": "buyer@example.com",
		"amount": 100,
		"status": "paid",
		"products": [{"name": "Hoodie", "quantity": 0, "price": 100}]
	}`)

	_, err := Decode[PaymentSucceededEvent](payload)
	assert.Error(t, err)

	empty := []byte(`{"email": "buyer@example.com", "amount": 100, "status": "paid", "products": []}`)
	_, err = Decode[PaymentSucceededEvent](empty)
	assert.Error(t, err)
}

func TestDecodeAllowsMissingSessionID(t *testing.T) {
	payload := []byte(`{
		"email": "buyer@example.com",
		"amount": 100,
		"status": "paid",
		"products": [{"name": "Hoodie", "quantity": 1, "price": 100}]
	}`)

	event, err := Decode[PaymentSucceededEvent](payload)
	require.NoError(t, err)
	assert.Empty(t, event.SessionID)
}

func TestDeadLetterTopic(t *testing.T) {
	assert.Equal(t, "payment.successful.dlq", DeadLetterTopic(TopicPaymentSuccessful))
}
