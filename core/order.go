package core

import (
	"context"
	"errors"
	"time"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type (
	// OrderItem freezes a cart line at purchase time. Price is the unit price
	// paid, independent of later catalog edits.
	OrderItem struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		Subtotal  float64 `json:"subtotal"`
	}

	Order struct {
		ID              string            `json:"id"`
		UserID          string            `json:"user_id"`
		Items           []OrderItem       `json:"items"`
		Total           float64           `json:"total"`
		Status          string            `json:"status"`
		ShippingAddress map[string]string `json:"shipping_address"`
		PaymentMethod   string            `json:"payment_method"`
		CreatedAt       time.Time         `json:"created_at"`
	}

	// SalesPoint is one bucket of the sales-over-time series.
	SalesPoint struct {
		Period string  `json:"period"`
		Orders int     `json:"orders"`
		Sales  float64 `json:"sales"`
	}

	// BestSeller aggregates units sold per product.
	BestSeller struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		UnitsSold int     `json:"units_sold"`
		Revenue   float64 `json:"revenue"`
	}

	OrderStore interface {
		CreateOrder(ctx context.Context, order *Order) error

		// ListOrders returns orders for a user, newest first. An empty userID
		// lists all orders (admin view).
		ListOrders(ctx context.Context, userID string) ([]*Order, error)

		GetOrder(ctx context.Context, id string) (*Order, error)
		UpdateOrderStatus(ctx context.Context, id, status string) error

		SalesByPeriod(ctx context.Context, period string) ([]SalesPoint, error)
		BestSellers(ctx context.Context, limit int) ([]BestSeller, error)
	}
)
