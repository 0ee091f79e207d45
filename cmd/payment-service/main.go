package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/identity"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/gateway"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/service"
	paymentHttp "github.com/JonOng2002/microservices-ecommerce/internal/payment/transport/http"
	"github.com/JonOng2002/microservices-ecommerce/internal/payment/transport/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/config"
	pkgKafka "github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"github.com/JonOng2002/microservices-ecommerce/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, "payment-service")
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

	stripeGateway := gateway.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.ReturnURL, logger)
	checkoutService := service.NewCheckoutService(stripeGateway, kafkaProducer, logger)

	consumer := kafka.NewConsumer(checkoutService, kafkaProducer, logger)
	go consumer.Start(ctx, cfg.Kafka.Brokers)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	authMiddleware := identity.NewMiddleware(identity.Opaque{}, cfg.Identity.PublicMode, cfg.Identity.Header)
	checkoutHandler := paymentHttp.NewCheckoutHandler(checkoutService, logger)
	paymentHttp.RegisterRoutes(app, checkoutHandler, authMiddleware)

	go func() {
		mylogger.Info(ctx, logger, "Payment service listening", zap.String("port", cfg.HTTP.Port))

		if err := app.Listen(cfg.HTTP.Port); err != nil {
			log.Fatalf("error serving http: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, exit := context.WithTimeout(context.Background(), time.Second*5)
	defer exit()

	mylogger.Info(
		shutdownCtx,
		logger,
		"Shutting down payment service",
	)

	if err := app.ShutdownWithTimeout(time.Second * 5); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}
}
