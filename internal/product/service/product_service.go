package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/domain"
	"github.com/JonOng2002/microservices-ecommerce/internal/product/repository"
	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	outboxDomain "github.com/JonOng2002/microservices-ecommerce/pkg/outbox/domain"
	"github.com/JonOng2002/microservices-ecommerce/pkg/outbox/worker"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductService interface {
	Create(ctx context.Context, input *domain.CreateProductInput) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error)
	Update(ctx context.Context, id string, input *domain.UpdateProductInput) error
	Delete(ctx context.Context, id string) error
}

type productService struct {
	pool             *pgxpool.Pool
	logger           *zap.Logger
	productRepo      repository.ProductRepository
	outboxRepo       worker.OutboxRepository
	ledger           inventory.Ledger
	defaultThreshold int64
	tracer           trace.Tracer
}

func NewProductService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	productRepo repository.ProductRepository,
	outboxRepo worker.OutboxRepository,
	ledger inventory.Ledger,
	defaultThreshold int64,
) ProductService {
	return &productService{
		pool:             pool,
		logger:           logger,
		productRepo:      productRepo,
		outboxRepo:       outboxRepo,
		ledger:           ledger,
		defaultThreshold: defaultThreshold,
		tracer:           otel.Tracer("product_service"),
	}
}

// Create persists the product and its created event in one transaction,
// then seeds the inventory ledger. Ledger seeding happens after commit and
// is not allowed to fail the request: a missing record is repairable
// through the inventory admin endpoints.
func (s *productService) Create(ctx context.Context, input *domain.CreateProductInput) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("name", input.Name),
	)

	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Slug:        domain.Slugify(input.Name),
		Description: input.Description,
		Price:       input.Price,
		ImageUrl:    input.ImageUrl,
		Category:    input.Category,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if err := s.productRepo.Create(ctx, tx, product); err != nil {
		return nil, err
	}

	event := &generalDomain.ProductCreatedEvent{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
	}

	if err := s.saveOutboxEvent(ctx, tx, product.ID, "ProductCreated", generalDomain.TopicProductCreated, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.seedLedger(ctx, product, input)

	mylogger.Info(
		ctx,
		s.logger,
		"Product created",
		zap.String("productId", product.ID),
	)

	return product, nil
}

func (s *productService) seedLedger(ctx context.Context, product *domain.Product, input *domain.CreateProductInput) {
	threshold := input.StockThreshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	record := &inventory.Record{
		ProductID:   product.ID,
		ProductName: product.Name,
		ProductSlug: product.Slug,
		Quantities: inventory.Quantities{
			inventory.SizeLarge:  input.QuantityL,
			inventory.SizeMedium: input.QuantityM,
			inventory.SizeSmall:  input.QuantityS,
		},
		StockThreshold: threshold,
	}

	if err := s.ledger.Set(ctx, record); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to seed inventory record, product is created",
			zap.String("productId", product.ID),
			zap.Error(err),
		)
	}
}

func (s *productService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetByID")
	defer span.End()

	return s.productRepo.GetByID(ctx, id)
}

func (s *productService) List(ctx context.Context, limit, offset int64, search string) ([]domain.Product, int64, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.List")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.productRepo.List(ctx, limit, offset, search)
}

func (s *productService) Update(ctx context.Context, id string, input *domain.UpdateProductInput) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
	)

	return s.productRepo.Update(ctx, id, input)
}

// Delete removes the product and its deleted event in one transaction,
// then drops the inventory record. An already absent record is fine.
func (s *productService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
	)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	if err := s.productRepo.DeleteByID(ctx, tx, id); err != nil {
		return err
	}

	event := &generalDomain.ProductDeletedEvent{ID: id}

	if err := s.saveOutboxEvent(ctx, tx, id, "ProductDeleted", generalDomain.TopicProductDeleted, event); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to commit transaction",
			zap.Error(err),
		)

		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.ledger.Delete(ctx, id); err != nil && !errors.Is(err, inventory.ErrRecordNotFound) {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to delete inventory record, product is deleted",
			zap.String("productId", id),
			zap.Error(err),
		)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Product deleted",
		zap.String("productId", id),
	)

	return nil
}

func (s *productService) saveOutboxEvent(ctx context.Context, tx pgx.Tx, aggregateID, eventType, topic string, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Product",
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payloadBytes,
		Topic:         topic,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to save outbox event",
			zap.Error(err),
		)

		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func (s *productService) rollback(ctx context.Context, tx pgx.Tx) {
	cleanupCtx := context.WithoutCancel(ctx)

	if err := tx.Rollback(cleanupCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		mylogger.Warn(
			cleanupCtx,
			s.logger,
			"Error rolling back transaction",
			zap.Error(err),
		)
	}
}
