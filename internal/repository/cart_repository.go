package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *cartRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// GetOrCreateForUpdate loads the owner's cart, creating it on first access,
// and locks the cart row for the remainder of the transaction. The insert
// uses ON CONFLICT DO NOTHING so two concurrent first accesses for the same
// owner converge on a single row instead of failing.
func (r *cartRepository) GetOrCreateForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*model.Cart, bool, error) {
	insertQuery := `
		INSERT INTO carts (id, owner_id, subtotal, net_total, updated_at)
		VALUES ($1, $2, 0, 0, $3)
		ON CONFLICT (owner_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, insertQuery, uuid.New(), ownerID, time.Now())
	if err != nil {
		r.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("failed to upsert cart")
		return nil, false, fmt.Errorf("failed to upsert cart: %w", err)
	}
	created := tag.RowsAffected() > 0

	selectQuery := `
		SELECT id, owner_id, coupon_code, discount_amount, subtotal, net_total, updated_at
		FROM carts
		WHERE owner_id = $1
		FOR UPDATE
	`

	var (
		cart     model.Cart
		discount decimal.NullDecimal
		subtotal decimal.Decimal
		netTotal decimal.Decimal
	)
	err = tx.QueryRow(ctx, selectQuery, ownerID).Scan(
		&cart.ID,
		&cart.OwnerID,
		&cart.CouponCode,
		&discount,
		&subtotal,
		&netTotal,
		&cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("owner_id", ownerID.String()).Msg("failed to lock cart row")
		return nil, false, fmt.Errorf("failed to load cart: %w", err)
	}
	if discount.Valid {
		m := money.FromDecimal(discount.Decimal)
		cart.DiscountAmount = &m
	}
	cart.Subtotal = money.FromDecimal(subtotal)
	cart.NetTotal = money.FromDecimal(netTotal)

	items, err := r.loadItems(ctx, tx, cart.ID)
	if err != nil {
		return nil, false, err
	}
	cart.Items = items

	if created {
		r.logger.Debug().Str("owner_id", ownerID.String()).Msg("cart created on first access")
	}

	return &cart, created, nil
}

// Save persists the cart header and replaces its line items within the
// provided transaction.
func (r *cartRepository) Save(ctx context.Context, tx pgx.Tx, cart *model.Cart) error {
	updateQuery := `
		UPDATE carts
		SET coupon_code = $2, discount_amount = $3, subtotal = $4, net_total = $5, updated_at = $6
		WHERE id = $1
	`

	var discount decimal.NullDecimal
	if cart.DiscountAmount != nil {
		discount = decimal.NullDecimal{Decimal: cart.DiscountAmount.Decimal(), Valid: true}
	}

	cart.UpdatedAt = time.Now()
	_, err := tx.Exec(ctx, updateQuery,
		cart.ID,
		cart.CouponCode,
		discount,
		cart.Subtotal.Decimal(),
		cart.NetTotal.Decimal(),
		cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to update cart")
		return fmt.Errorf("failed to update cart: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cart.ID.String()).Msg("failed to clear cart items")
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	if len(cart.Items) == 0 {
		return nil
	}

	insertQuery := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.CartID = cart.ID
		batch.Queue(insertQuery, item.ID, item.CartID, item.ProductID, item.Quantity, item.UnitPrice.Decimal())
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(cart.Items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("cart_id", cart.ID.String()).
				Str("product_id", cart.Items[i].ProductID).
				Msg("failed to insert cart item")
			return fmt.Errorf("failed to insert cart item: %w", err)
		}
	}

	r.logger.Debug().
		Str("cart_id", cart.ID.String()).
		Int("item_count", len(cart.Items)).
		Msg("cart saved")

	return nil
}

// loadItems retrieves the line items for a cart within the transaction.
func (r *cartRepository) loadItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY product_id
	`

	rows, err := tx.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var (
			item  model.CartItem
			price decimal.Decimal
		)
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		item.UnitPrice = money.FromDecimal(price)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}
