// Package service implements the business logic layer.
package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/money"

	"github.com/google/uuid"
)

// ProductService defines catalogue browsing operations.
type ProductService interface {
	// ListProducts retrieves products with pagination support.
	ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetProduct retrieves a single product by its ID.
	GetProduct(ctx context.Context, id string) (*model.Product, error)
}

// CartService defines operations on a user's cart. Every mutation runs in
// its own transaction with the cart row locked, recomputes the cart's
// derived totals, and returns the saved state.
type CartService interface {
	// GetCart returns the owner's cart, creating an empty one on first access.
	GetCart(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error)

	// AddItem adds a product to the cart, merging quantity into an existing
	// line. The unit price is snapshotted on first add.
	AddItem(ctx context.Context, ownerID uuid.UUID, productID string, quantity int) (*model.Cart, error)

	// RemoveItem removes the entire line for the product. Removing an absent
	// product is a no-op.
	RemoveItem(ctx context.Context, ownerID uuid.UUID, productID string) (*model.Cart, error)

	// Clear empties the cart, dropping all items and any applied coupon.
	Clear(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error)

	// ApplyCoupon validates the coupon against the cart's current subtotal
	// and stores it on the cart, consuming one use when the coupon carries
	// a usage limit.
	ApplyCoupon(ctx context.Context, ownerID uuid.UUID, code string) (*model.Cart, error)

	// RemoveCoupon clears the applied coupon. Any consumed usage count is
	// not refunded.
	RemoveCoupon(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error)
}

// CouponService defines coupon administration and lookup operations.
type CouponService interface {
	// ListCoupons retrieves all coupons.
	ListCoupons(ctx context.Context) ([]model.Coupon, error)

	// CreateCoupon persists a new coupon definition. Admin only.
	CreateCoupon(ctx context.Context, actor model.User, req *model.CouponRequest) (*model.Coupon, error)

	// PreviewDiscount computes the discount the coupon would grant against
	// the given order amount without consuming a use.
	PreviewDiscount(ctx context.Context, code string, orderAmount money.Money) (money.Money, error)
}

// OrderService defines checkout and order management operations.
type OrderService interface {
	// Checkout converts the owner's cart into a price-frozen order and
	// empties the cart, all in one transaction.
	Checkout(ctx context.Context, ownerID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error)

	// GetOrder retrieves an order. Customers only see their own orders.
	GetOrder(ctx context.Context, actor model.User, id uuid.UUID) (*model.Order, error)

	// ListOrders retrieves the actor's orders, or all orders for an admin.
	ListOrders(ctx context.Context, actor model.User) ([]model.Order, error)

	// UpdateOrderStatus updates any subset of the order's status fields.
	// Admin only.
	UpdateOrderStatus(ctx context.Context, actor model.User, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error)
}
