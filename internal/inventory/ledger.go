package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/pkg/mylogger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Ledger is the per-size stock counter store shared by the catalog (which
// seeds and removes records) and order fulfillment (which decrements them).
type Ledger interface {
	Set(ctx context.Context, record *Record) error
	Add(ctx context.Context, productID string, deltas Quantities) (*Record, error)
	Get(ctx context.Context, productID string) (*Record, error)
	Delete(ctx context.Context, productID string) error
	List(ctx context.Context) ([]*Record, error)
	ListLowStock(ctx context.Context) ([]*Record, error)
}

const (
	fieldProductName    = "product_name"
	fieldProductSlug    = "product_slug"
	fieldStockThreshold = "stock_threshold"
	fieldUpdatedAt      = "updated_at"
)

type redisLedger struct {
	client *redis.Client
	tracer trace.Tracer
	logger *zap.Logger
}

func NewRedisLedger(client *redis.Client, logger *zap.Logger) Ledger {
	return &redisLedger{
		client: client,
		tracer: otel.Tracer("inventory/ledger"),
		logger: logger,
	}
}

func recordKey(productID string) string {
	return fmt.Sprintf("inventory:%s", productID)
}

func quantityField(size Size) string {
	return fmt.Sprintf("quantity_%s", size)
}

func (l *redisLedger) Set(ctx context.Context, record *Record) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", record.ProductID),
	)

	fields := map[string]interface{}{
		fieldProductName:          record.ProductName,
		fieldProductSlug:          record.ProductSlug,
		quantityField(SizeLarge):  record.Quantities[SizeLarge],
		quantityField(SizeMedium): record.Quantities[SizeMedium],
		quantityField(SizeSmall):  record.Quantities[SizeSmall],
		fieldStockThreshold:       record.StockThreshold,
		fieldUpdatedAt:            time.Now().UTC().Format(time.RFC3339),
	}

	err := l.client.HSet(ctx, recordKey(record.ProductID), fields).Err()
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error setting inventory record: %w", err)
	}

	return nil
}

// Add applies each size delta with an independent atomic increment. A failed
// field does not roll back fields already applied; the surviving state is
// returned alongside the joined per-field errors. Counters are allowed to go
// negative, which is logged as a reconciliation signal.
func (l *redisLedger) Add(ctx context.Context, productID string, deltas Quantities) (*Record, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Add")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
	)

	key := recordKey(productID)

	var fieldErrs []error
	for _, size := range []Size{SizeLarge, SizeMedium, SizeSmall} {
		delta, ok := deltas[size]
		if !ok || delta == 0 {
			continue
		}

		newValue, err := l.client.HIncrBy(ctx, key, quantityField(size), delta).Result()
		if err != nil {
			span.RecordError(err)
			fieldErrs = append(fieldErrs, fmt.Errorf("error adjusting %s quantity: %w", size, err))

			continue
		}

		if newValue < 0 {
			mylogger.Warn(
				ctx,
				l.logger,
				"inventory counter went negative, needs reconciliation",
				zap.String("productId", productID),
				zap.String("size", string(size)),
				zap.Int64("quantity", newValue),
			)
		}
	}

	if err := l.client.HSet(ctx, key, fieldUpdatedAt, time.Now().UTC().Format(time.RFC3339)).Err(); err != nil {
		fieldErrs = append(fieldErrs, fmt.Errorf("error stamping inventory record: %w", err))
	}

	record, err := l.Get(ctx, productID)
	if err != nil {
		fieldErrs = append(fieldErrs, err)

		return nil, errors.Join(fieldErrs...)
	}

	return record, errors.Join(fieldErrs...)
}

func (l *redisLedger) Get(ctx context.Context, productID string) (*Record, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Get")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
	)

	fields, err := l.client.HGetAll(ctx, recordKey(productID)).Result()
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("error getting inventory record: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrRecordNotFound
	}

	return recordFromFields(productID, fields), nil
}

func (l *redisLedger) Delete(ctx context.Context, productID string) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
	)

	deleted, err := l.client.Del(ctx, recordKey(productID)).Result()
	if err != nil {
		span.RecordError(err)

		return fmt.Errorf("error deleting inventory record: %w", err)
	}

	if deleted == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (l *redisLedger) List(ctx context.Context) ([]*Record, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.List")
	defer span.End()

	records := make([]*Record, 0)

	iter := l.client.Scan(ctx, 0, "inventory:*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		fields, err := l.client.HGetAll(ctx, key).Result()
		if err != nil {
			span.RecordError(err)

			return nil, fmt.Errorf("error reading inventory record %s: %w", key, err)
		}

		if len(fields) == 0 {
			continue
		}

		records = append(records, recordFromFields(key[len("inventory:"):], fields))
	}

	if err := iter.Err(); err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("error scanning inventory records: %w", err)
	}

	span.SetAttributes(
		attribute.Int("result_count", len(records)),
	)

	return records, nil
}

func (l *redisLedger) ListLowStock(ctx context.Context) ([]*Record, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.ListLowStock")
	defer span.End()

	all, err := l.List(ctx)
	if err != nil {
		return nil, err
	}

	low := make([]*Record, 0)
	for _, record := range all {
		if record.LowStock() {
			low = append(low, record)
		}
	}

	return low, nil
}

func recordFromFields(productID string, fields map[string]string) *Record {
	record := &Record{
		ProductID:   productID,
		ProductName: fields[fieldProductName],
		ProductSlug: fields[fieldProductSlug],
		Quantities:  Quantities{},
	}

	for _, size := range []Size{SizeLarge, SizeMedium, SizeSmall} {
		record.Quantities[size], _ = strconv.ParseInt(fields[quantityField(size)], 10, 64)
	}

	record.StockThreshold, _ = strconv.ParseInt(fields[fieldStockThreshold], 10, 64)

	if raw, ok := fields[fieldUpdatedAt]; ok {
		record.UpdatedAt, _ = time.Parse(time.RFC3339, raw)
	}

	return record
}
