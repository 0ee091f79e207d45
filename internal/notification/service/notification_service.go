package service

import (
	"context"

	"github.com/JonOng2002/microservices-ecommerce/internal/notification/email"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type NotificationService struct {
	emailSender email.Sender
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewNotificationService(emailSender email.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		emailSender: emailSender,
		logger:      logger,
		tracer:      otel.Tracer("notification-service"),
	}
}

// HandleOrderCreated sends the order confirmation. Events without a
// customer email are skipped: guest checkouts that never reached the
// provider's email capture produce nothing to notify.
func (s *NotificationService) HandleOrderCreated(ctx context.Context, event *generalDomain.OrderCreatedEvent) error {
	ctx, span := s.tracer.Start(ctx, "NotificationService.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.String("email", event.Email),
	)

	if event.Email == "" {
		mylogger.Warn(
			ctx,
			s.logger,
			"Order created event without email, skipping notification",
		)

		return nil
	}

	return s.emailSender.SendOrderConfirmation(ctx, event.Email, event.Amount, event.Status)
}
