package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/JonOng2002/microservices-ecommerce/internal/notification/service"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"go.uber.org/zap"
)

type Producer interface {
	ProduceMessage(ctx context.Context, topic string, message interface{}) error
}

type Consumer struct {
	service  *service.NotificationService
	producer Producer
	logger   *zap.Logger
}

func NewConsumer(service *service.NotificationService, producer Producer, logger *zap.Logger) *Consumer {
	return &Consumer{
		service:  service,
		producer: producer,
		logger:   logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		"notification-service-group",
		[]string{generalDomain.TopicOrderCreated},
		c.processMessage,
		c.logger,
	)

	consumerGroup.Run(ctx)
}

// processMessage treats notification as best effort: a failed send is
// logged and the delivery is dropped rather than retried, so a flaky
// mail relay cannot wedge the consumer group.
func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Info(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	event, err := generalDomain.Decode[generalDomain.OrderCreatedEvent](msg.Value)
	if err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Malformed order event, sending to dead letter topic",
			zap.String("topic", msg.Topic),
			zap.Error(err),
		)

		c.sendToDeadLetter(ctx, msg)

		return nil
	}

	if err := c.service.HandleOrderCreated(ctx, event); err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to send order notification, dropping delivery",
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
