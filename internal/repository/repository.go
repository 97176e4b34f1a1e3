package repository

import (
	"context"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository defines read access to the product catalogue.
// Catalogue writes happen in an external admin service.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	// Returns model.ErrProductNotFound when the product does not exist.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// CartRepository defines data access for carts. All mutations run inside a
// transaction with the cart row locked, so concurrent operations on the
// same owner's cart serialise instead of losing updates.
type CartRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// GetOrCreateForUpdate loads the owner's cart inside the transaction,
	// creating an empty one if this is the owner's first access, and locks
	// the cart row until the transaction ends. The second return value
	// reports whether the cart was created by this call.
	GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*model.Cart, bool, error)

	// Save persists the cart header and replaces its line items within the
	// provided transaction.
	Save(ctx context.Context, tx pgx.Tx, cart *model.Cart) error
}

// CouponRepository defines data access for coupons.
type CouponRepository interface {
	// GetAll retrieves all coupons ordered by creation time.
	GetAll(ctx context.Context) ([]model.Coupon, error)

	// FindByCode looks up a coupon by its code, case-insensitively.
	// Returns model.ErrCouponNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*model.Coupon, error)

	// FindByCodeTx is FindByCode executed within an open transaction.
	FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error)

	// ConsumeUse atomically increments the coupon's usage count, guarded by
	// its usage limit. Returns model.ErrInvalidCoupon when the limit is
	// already exhausted, so a losing concurrent redeemer never observes a
	// corrupted count.
	ConsumeUse(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	// Create persists a new coupon. Returns model.ErrDuplicateCoupon when
	// the code is already taken.
	Create(ctx context.Context, c *model.Coupon) error
}

// OrderRepository defines data access for orders.
type OrderRepository interface {
	// Create inserts a new order and its items within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetByID retrieves an order with its items.
	// Returns model.ErrOrderNotFound when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListByOwner retrieves all orders placed by the given owner, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Order, error)

	// ListAll retrieves all orders, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)

	// UpdateStatus sets the provided status fields on an order, leaving nil
	// fields unchanged, and returns the updated order.
	UpdateStatus(ctx context.Context, id uuid.UUID, orderStatus *model.OrderStatus, paymentStatus *model.PaymentStatus) (*model.Order, error)
}
