package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/notification/email"
	"github.com/JonOng2002/microservices-ecommerce/internal/notification/service"
	"github.com/JonOng2002/microservices-ecommerce/internal/notification/transport/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/config"
	pkgKafka "github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "notification-service")
	if err != nil {
		log.Fatalf("failed to init tracer: %v", err)
	}

	cfg := config.MustLoad()

	logger, err := config.NewLogger(config.LoggerConfig{
		Level: "Info",
		Env:   cfg.Env,
	})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	kafkaProducer, err := pkgKafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	sender := email.NewSMTPSender(cfg.SMTP, logger)
	notificationService := service.NewNotificationService(sender, logger)

	consumer := kafka.NewConsumer(notificationService, kafkaProducer, logger)
	consumer.Start(ctx, cfg.Kafka.Brokers)

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(
		shutdownCtx,
		logger,
		"Shutting down notification service",
	)

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}
}
