package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/service"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"go.uber.org/zap"
)

// Consumer keeps the provider-side product mirror in sync with catalog
// events. Mirror failures are returned so the delivery is redelivered.
type Consumer struct {
	service  service.CheckoutService
	producer service.Producer
	logger   *zap.Logger
}

func NewConsumer(service service.CheckoutService, producer service.Producer, logger *zap.Logger) *Consumer {
	return &Consumer{
		service:  service,
		producer: producer,
		logger:   logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"payment-service-group",
		[]string{generalDomain.TopicProductCreated, generalDomain.TopicProductDeleted},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	switch msg.Topic {
	case generalDomain.TopicProductCreated:
		event, err := generalDomain.Decode[generalDomain.ProductCreatedEvent](msg.Value)
		if err != nil {
			c.sendToDeadLetter(ctx, msg, err)
			return nil
		}

		return c.service.HandleProductCreated(ctx, event)
	case generalDomain.TopicProductDeleted:
		event, err := generalDomain.Decode[generalDomain.ProductDeletedEvent](msg.Value)
		if err != nil {
			c.sendToDeadLetter(ctx, msg, err)
			return nil
		}

		return c.service.HandleProductDeleted(ctx, event)
	default:
		mylogger.Warn(ctx, c.logger, "Ignored topic", zap.String("topic", msg.Topic))
	}

	return nil
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *sarama.ConsumerMessage, cause error) {
	dlqTopic := generalDomain.DeadLetterTopic(msg.Topic)

	mylogger.Error(
		ctx,
		c.logger,
		"Malformed event, sending to dead letter topic",
		zap.String("topic", msg.Topic),
		zap.Error(cause),
	)

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
