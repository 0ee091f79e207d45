package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
	OrderStatusFailed  OrderStatus = "failed"
)

// LineItem is the immutable purchase snapshot carried over from checkout.
// Price is in the smallest currency unit.
type LineItem struct {
	ProductID string `bson:"productId" json:"productId"`
	Name      string `bson:"name" json:"name"`
	Quantity  int64  `bson:"quantity" json:"quantity"`
	Price     int64  `bson:"price" json:"price"`
	Size      string `bson:"size" json:"size"`
}

type Order struct {
	ID        string      `bson:"_id" json:"id"`
	UserID    string      `bson:"userId,omitempty" json:"userId,omitempty"`
	Email     string      `bson:"email" json:"email"`
	Products  []LineItem  `bson:"products" json:"products"`
	Amount    int64       `bson:"amount" json:"amount"`
	Status    OrderStatus `bson:"status" json:"status"`
	SessionID string      `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
}

// ChartPoint is one month of aggregated order volume.
type ChartPoint struct {
	Month  string `bson:"_id" json:"month"`
	Orders int64  `bson:"orders" json:"orders"`
	Amount int64  `bson:"amount" json:"amount"`
}
