package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/money"
)

// OrderStatus tracks fulfilment progress.
type OrderStatus string

// PaymentStatus tracks the externally driven payment outcome.
type PaymentStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"

	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// ParseOrderStatus normalises and validates an order status value.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch v := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return v, true
	default:
		return "", false
	}
}

// ParsePaymentStatus normalises and validates a payment status value.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch v := PaymentStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return v, true
	default:
		return "", false
	}
}

// Address is the shipping destination captured at checkout.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// OrderItem is an immutable snapshot of a cart line at checkout time.
type OrderItem struct {
	ID        uuid.UUID   `json:"-"`
	OrderID   uuid.UUID   `json:"-"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unitPrice"`
}

// Order is a price-frozen snapshot of a checked-out cart. Line items and
// totals are immutable after creation; only the two status fields may be
// updated, and only by an administrator.
type Order struct {
	ID              uuid.UUID     `json:"id"`
	OwnerID         uuid.UUID     `json:"ownerId"`
	Items           []OrderItem   `json:"items"`
	ShippingAddress Address       `json:"shippingAddress"`
	PaymentMethod   string        `json:"paymentMethod"`
	ShippingFee     money.Money   `json:"shippingFee"`
	Tax             money.Money   `json:"tax"`
	Subtotal        money.Money   `json:"subtotal"`
	DiscountAmount  *money.Money  `json:"discountAmount,omitempty"`
	GrandTotal      money.Money   `json:"grandTotal"`
	CouponCode      *string       `json:"couponCode,omitempty"`
	OrderStatus     OrderStatus   `json:"orderStatus"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	CreatedAt       time.Time     `json:"createdAt"`
}
