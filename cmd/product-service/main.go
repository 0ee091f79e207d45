package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/identity"
	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/repository"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/service"
	productHttp "github.com/JonOng2002/microservices-ecommerce/internal/product/transport/http"
	"github.com/JonOng2002/microservices-ecommerce/pkg/config"
	"github.com/JonOng2002/microservices-ecommerce/pkg/db"
	pkgKafka "github.com/JonOng2002/microservices-ecommerce/pkg/kafka"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	outboxRepository "github.com/JonOng2002/microservices-ecommerce/pkg/outbox/repository"
	"github.com/JonOng2002/microservices-ecommerce/pkg/outbox/worker"
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

	tp, err := utils.InitTracer(ctx, "product-service")
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

	pool, err := db.NewPostgresDB(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("failed to create pool: %v", err)
	}

	redisClient, err := db.NewRedisClient(cfg.Redis.Addr)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	kafkaProducer, err := pkgKafka.NewProducer(cfg.Kafka.Brokers)
	if err != nil {
		log.Fatalf("error creating kafka producer: %v", err)
	}

	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)
	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, kafkaProducer, logger)
	go outboxProcessor.Start(ctx)

	ledger := inventory.NewRedisLedger(redisClient, logger)
	productRepo := repository.NewProductRepository(pool, logger)
	productService := service.NewProductService(pool, logger, productRepo, outboxRepo, ledger, cfg.Inventory.DefaultThreshold)
	inventoryService := service.NewInventoryService(ledger, logger, cfg.Inventory.DefaultThreshold)

	app := fiber.New(fiber.Config{
		ReadTimeout: cfg.HTTP.Timeout,
	})

	authMiddleware := identity.NewMiddleware(identity.Opaque{}, cfg.Identity.PublicMode, cfg.Identity.Header)
	productHandler := productHttp.NewProductHandler(productService, inventoryService, logger)
	productHttp.RegisterRoutes(app, productHandler, authMiddleware)

	go func() {
		mylogger.Info(ctx, logger, "Product service listening", zap.String("port", cfg.HTTP.Port))

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
		"Shutting down product service",
	)

	if err := app.ShutdownWithTimeout(time.Second * 5); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down http server", zap.Error(err))
	}

	if err := kafkaProducer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close kafka producer", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close redis client", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	}

	pool.Close()
}
