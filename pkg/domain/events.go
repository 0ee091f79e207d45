package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Topic names double as the event tags: each topic carries exactly one
// payload shape, validated at the subscribe boundary.
const (
	TopicPaymentSuccessful = "payment.successful"
	TopicOrderCreated      = "order.created"
	TopicProductCreated    = "product.created"
	TopicProductDeleted    = "product.deleted"
)

// DeadLetterTopic is the side channel for messages that fail decoding or
// validation on a given topic.
func DeadLetterTopic(topic string) string {
	return topic + ".dlq"
}

// PaymentStatusSuccess is the status literal every payment.successful event
// carries on the wire, independent of the provider's own status vocabulary.
const PaymentStatusSuccess = "success"

type ProductLine struct {
	ID       string `json:"id"`
	Name     string `json:"name" validate:"required"`
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Price    int64  `json:"price" validate:"gte=0"`
	Size     string `json:"size"`
}

// PaymentSucceededEvent is published by the checkout coordinator once a
// provider session resolves to paid+complete. SessionID is the downstream
// dedup key; events without it are accepted but not deduplicated.
type PaymentSucceededEvent struct {
	UserID    string        `json:"userId,omitempty"`
	Email     string        `json:"email" validate:"omitempty,email"`
	Amount    int64         `json:"amount" validate:"gte=0"`
	Status    string        `json:"status" validate:"required"`
	SessionID string        `json:"sessionId,omitempty"`
	Products  []ProductLine `json:"products" validate:"required,min=1,dive"`
}

type OrderCreatedEvent struct {
	Email  string `json:"email" validate:"omitempty,email"`
	Amount int64  `json:"amount" validate:"gte=0"`
	Status string `json:"status" validate:"required"`
}

type ProductCreatedEvent struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Price int64  `json:"price" validate:"gt=0"`
}

type ProductDeletedEvent struct {
	ID string `json:"id" validate:"required"`
}

var validate = validator.New()

// Decode unmarshals raw message bytes into the event type and validates it.
// A non-nil error means the message is malformed and belongs on the
// dead-letter path, not in a handler.
func Decode[T any](data []byte) (*T, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	if err := validate.Struct(&event); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	return &event, nil
}
