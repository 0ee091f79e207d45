package service

import (
	"context"
	"errors"

	"github.com/JonOng2002/microservices-ecommerce/internal/inventory"
	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrUnknownOperation = errors.New("unknown inventory operation")

// Operations accepted by AdjustInventory.
const (
	OperationSet = "set"
	OperationAdd = "add"
)

// InventoryService is the admin surface over the inventory ledger: seeding
// and repairing records, stock lookups and the low stock report.
type InventoryService interface {
	SetInventory(ctx context.Context, record *inventory.Record) error
	AdjustInventory(ctx context.Context, productID, operation string, quantities inventory.Quantities) (*inventory.Record, error)
	GetInventory(ctx context.Context, productID string) (*inventory.Record, error)
	ListInventory(ctx context.Context) ([]*inventory.Record, error)
	ListLowStock(ctx context.Context) ([]*inventory.Record, error)
	DeleteInventory(ctx context.Context, productID string) error
}

type inventoryService struct {
	ledger           inventory.Ledger
	logger           *zap.Logger
	defaultThreshold int64
	tracer           trace.Tracer
}

func NewInventoryService(ledger inventory.Ledger, logger *zap.Logger, defaultThreshold int64) InventoryService {
	return &inventoryService{
		ledger:           ledger,
		logger:           logger,
		defaultThreshold: defaultThreshold,
		tracer:           otel.Tracer("inventory_service"),
	}
}

func (s *inventoryService) SetInventory(ctx context.Context, record *inventory.Record) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.SetInventory")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", record.ProductID),
	)

	if record.StockThreshold <= 0 {
		record.StockThreshold = s.defaultThreshold
	}

	return s.ledger.Set(ctx, record)
}

// AdjustInventory applies a set or add operation to a record. Set replaces
// the whole record; add shifts individual counters and reports the state
// left behind, including any partially applied outcome.
func (s *inventoryService) AdjustInventory(ctx context.Context, productID, operation string, quantities inventory.Quantities) (*inventory.Record, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AdjustInventory")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.String("operation", operation),
	)

	switch operation {
	case OperationSet:
		current, err := s.ledger.Get(ctx, productID)
		if err != nil {
			return nil, err
		}

		current.Quantities = quantities
		if err := s.ledger.Set(ctx, current); err != nil {
			return nil, err
		}

		return s.ledger.Get(ctx, productID)
	case OperationAdd:
		record, err := s.ledger.Add(ctx, productID, quantities)
		if err != nil {
			mylogger.Warn(
				ctx,
				s.logger,
				"Inventory adjustment partially applied",
				zap.String("productId", productID),
				zap.Error(err),
			)
		}

		return record, err
	default:
		return nil, ErrUnknownOperation
	}
}

func (s *inventoryService) GetInventory(ctx context.Context, productID string) (*inventory.Record, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetInventory")
	defer span.End()

	return s.ledger.Get(ctx, productID)
}

func (s *inventoryService) ListInventory(ctx context.Context) ([]*inventory.Record, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListInventory")
	defer span.End()

	return s.ledger.List(ctx)
}

func (s *inventoryService) ListLowStock(ctx context.Context) ([]*inventory.Record, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListLowStock")
	defer span.End()

	return s.ledger.ListLowStock(ctx)
}

func (s *inventoryService) DeleteInventory(ctx context.Context, productID string) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeleteInventory")
	defer span.End()

	return s.ledger.Delete(ctx, productID)
}
