package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/JonOng2002/microservices-ecommerce/internal/order/service"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service  service.OrderService
	producer service.Producer
	logger   *zap.Logger
}

func NewConsumer(service service.OrderService, producer service.Producer, logger *zap.Logger) *Consumer {
	return &Consumer{
		service:  service,
		producer: producer,
		logger:   logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"order-service-group",
		[]string{generalDomain.TopicPaymentSuccessful},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

// processMessage validates the delivery at the boundary. A payload that
// fails decoding or validation goes to the dead letter topic and counts as
// consumed. Store failures during fulfillment are logged and dropped rather
// than redelivered: replaying them would repeat inventory decrements for
// orders that may be partially applied.
func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	event, err := generalDomain.Decode[generalDomain.PaymentSucceededEvent](msg.Value)
	if err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Malformed payment event, sending to dead letter topic",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)

		c.sendToDeadLetter(ctx, msg)

		return nil
	}

	if err := c.service.HandlePaymentSucceeded(ctx, event); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Fulfillment failed, dropping delivery",
			zap.String("sessionId", event.SessionID),
			zap.Error(err),
		)
	}

	return nil
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *sarama.ConsumerMessage) {
	dlqTopic := generalDomain.DeadLetterTopic(msg.Topic)

	if err := c.producer.ProduceMessage(ctx, dlqTopic, json.RawMessage(msg.Value)); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to publish to dead letter topic",
			zap.String("topic", dlqTopic),
			zap.Error(err),
		)
	}
}
