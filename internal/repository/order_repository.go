package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, owner_id, street, city, state, zip_code, country, payment_method,
		shipping_fee, tax, subtotal, discount_amount, grand_total, coupon_code,
		order_status, payment_status, created_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// Create inserts a new order and its items within the provided transaction.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	insertOrder := `
		INSERT INTO orders (id, owner_id, street, city, state, zip_code, country, payment_method,
			shipping_fee, tax, subtotal, discount_amount, grand_total, coupon_code,
			order_status, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	var discount decimal.NullDecimal
	if order.DiscountAmount != nil {
		discount = decimal.NullDecimal{Decimal: order.DiscountAmount.Decimal(), Valid: true}
	}

	_, err := tx.Exec(ctx, insertOrder,
		order.ID,
		order.OwnerID,
		order.ShippingAddress.Street,
		order.ShippingAddress.City,
		order.ShippingAddress.State,
		order.ShippingAddress.ZipCode,
		order.ShippingAddress.Country,
		order.PaymentMethod,
		order.ShippingFee.Decimal(),
		order.Tax.Decimal(),
		order.Subtotal.Decimal(),
		discount,
		order.GrandTotal.Decimal(),
		order.CouponCode,
		string(order.OrderStatus),
		string(order.PaymentStatus),
		order.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	insertItem := `
		INSERT INTO order_items (id, order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		batch.Queue(insertItem, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice.Decimal())
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(order.Items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("product_id", order.Items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Msg("order created")

	return nil
}

// GetByID retrieves an order with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if err := r.attachItems(ctx, []*model.Order{&order}); err != nil {
		return nil, err
	}

	return &order, nil
}

// ListByOwner retrieves all orders placed by the given owner, newest first.
func (r *orderRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

// ListAll retrieves all orders, newest first.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// UpdateStatus sets the provided status fields, leaving nil fields unchanged.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, orderStatus *model.OrderStatus, paymentStatus *model.PaymentStatus) (*model.Order, error) {
	query := `
		UPDATE orders
		SET order_status = COALESCE($2, order_status),
		    payment_status = COALESCE($3, payment_status)
		WHERE id = $1
		RETURNING ` + orderColumns

	var orderStatusArg, paymentStatusArg *string
	if orderStatus != nil {
		s := string(*orderStatus)
		orderStatusArg = &s
	}
	if paymentStatus != nil {
		s := string(*paymentStatus)
		paymentStatusArg = &s
	}

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id, orderStatusArg, paymentStatusArg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, model.ErrOrderNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := r.attachItems(ctx, []*model.Order{&order}); err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	refs := make([]*model.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems batch-loads line items for the given orders.
func (r *orderRepository) attachItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]*model.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	query := `
		SELECT id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY product_id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(orders)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  model.OrderItem
			price decimal.Decimal
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		item.UnitPrice = money.FromDecimal(price)
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (model.Order, error) {
	var (
		o             model.Order
		shippingFee   decimal.Decimal
		tax           decimal.Decimal
		subtotal      decimal.Decimal
		discount      decimal.NullDecimal
		grandTotal    decimal.Decimal
		orderStatus   string
		paymentStatus string
	)
	err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.State,
		&o.ShippingAddress.ZipCode,
		&o.ShippingAddress.Country,
		&o.PaymentMethod,
		&shippingFee,
		&tax,
		&subtotal,
		&discount,
		&grandTotal,
		&o.CouponCode,
		&orderStatus,
		&paymentStatus,
		&o.CreatedAt,
	)
	if err != nil {
		return model.Order{}, err
	}
	o.ShippingFee = money.FromDecimal(shippingFee)
	o.Tax = money.FromDecimal(tax)
	o.Subtotal = money.FromDecimal(subtotal)
	if discount.Valid {
		m := money.FromDecimal(discount.Decimal)
		o.DiscountAmount = &m
	}
	o.GrandTotal = money.FromDecimal(grandTotal)
	o.OrderStatus = model.OrderStatus(orderStatus)
	o.PaymentStatus = model.PaymentStatus(paymentStatus)
	return o, nil
}
