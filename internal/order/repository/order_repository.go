package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/JonOng2002/microservices-ecommerce/internal/order/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListRecent(ctx context.Context, limit int64) ([]*domain.Order, error)
	OrderChart(ctx context.Context, months int) ([]domain.ChartPoint, error)
}

type orderRepo struct {
	orders *mongo.Collection
	tracer trace.Tracer
	logger *zap.Logger
}

func NewOrderRepository(db *mongo.Database, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		orders: db.Collection("orders"),
		tracer: otel.Tracer("order/repository"),
		logger: logger,
	}
}

// EnsureIndexes creates the sparse unique index backing session dedup.
// Sparse keeps legacy orders without a session id insertable.
func (r *orderRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.orders.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sessionId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetSparse(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}

	return nil
}

func (r *orderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("session_id", order.SessionID),
	)

	_, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrder
		}

		span.RecordError(err)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *orderRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
	)

	var order domain.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListByUser")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
	)

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.orders.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}

	return decodeOrders(ctx, cursor, span)
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int64) ([]*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ListRecent")
	defer span.End()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.orders.Find(ctx, bson.M{}, opts)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}

	return decodeOrders(ctx, cursor, span)
}

func (r *orderRepo) OrderChart(ctx context.Context, months int) ([]domain.ChartPoint, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.OrderChart")
	defer span.End()

	since := time.Now().UTC().AddDate(0, -months, 0)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":    bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$createdAt"}},
			"orders": bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to aggregate order chart: %w", err)
	}
	defer cursor.Close(ctx)

	points := make([]domain.ChartPoint, 0)
	if err := cursor.All(ctx, &points); err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to decode order chart: %w", err)
	}

	return points, nil
}

func decodeOrders(ctx context.Context, cursor *mongo.Cursor, span trace.Span) ([]*domain.Order, error) {
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	span.SetAttributes(
		attribute.Int("result_count", len(orders)),
	)

	return orders, nil
}
