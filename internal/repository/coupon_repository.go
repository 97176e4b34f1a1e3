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

const couponColumns = `id, code, description, discount_type, discount_amount,
		min_purchase, max_discount, starts_at, ends_at, active, usage_limit, usage_count, created_at`

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetAll retrieves all coupons ordered by creation time.
func (r *couponRepository) GetAll(ctx context.Context) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	var coupons []model.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// FindByCode looks up a coupon by its code, case-insensitively.
func (r *couponRepository) FindByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.findByCode(ctx, r.pool, code)
}

// FindByCodeTx is FindByCode executed within an open transaction.
func (r *couponRepository) FindByCodeTx(ctx context.Context, tx pgx.Tx, code string) (*model.Coupon, error) {
	return r.findByCode(ctx, tx, code)
}

// querier is the subset of pgx query methods shared by pools and transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *couponRepository) findByCode(ctx context.Context, q querier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE UPPER(code) = UPPER($1)`

	c, err := scanCoupon(q.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, model.ErrCouponNotFound
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// ConsumeUse atomically increments the coupon's usage count. The WHERE
// clause guards the usage limit, so of two concurrent redemptions racing
// for the last remaining use exactly one succeeds; the loser sees zero
// rows affected and gets model.ErrInvalidCoupon.
func (r *couponRepository) ConsumeUse(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = $1
		  AND active
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to increment coupon usage")
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("coupon_id", id.String()).Msg("coupon usage limit exhausted")
		return model.ErrInvalidCoupon
	}

	return nil
}

// Create persists a new coupon.
func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, description, discount_type, discount_amount,
			min_purchase, max_discount, starts_at, ends_at, active, usage_limit, usage_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var maxDiscount decimal.NullDecimal
	if c.MaxDiscount != nil {
		maxDiscount = decimal.NullDecimal{Decimal: c.MaxDiscount.Decimal(), Valid: true}
	}

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Code,
		c.Description,
		string(c.DiscountType),
		c.DiscountAmount.Decimal(),
		c.MinPurchase.Decimal(),
		maxDiscount,
		c.StartsAt,
		c.EndsAt,
		c.Active,
		c.UsageLimit,
		c.UsageCount,
		c.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			r.logger.Warn().Str("code", c.Code).Msg("duplicate coupon code")
			return model.ErrDuplicateCoupon
		}
		r.logger.Error().Err(err).Str("code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	return nil
}

func scanCoupon(row pgx.Row) (model.Coupon, error) {
	var (
		c              model.Coupon
		discountType   string
		discountAmount decimal.Decimal
		minPurchase    decimal.Decimal
		maxDiscount    decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&discountType,
		&discountAmount,
		&minPurchase,
		&maxDiscount,
		&c.StartsAt,
		&c.EndsAt,
		&c.Active,
		&c.UsageLimit,
		&c.UsageCount,
		&c.CreatedAt,
	)
	if err != nil {
		return model.Coupon{}, err
	}
	c.DiscountType = model.DiscountType(discountType)
	c.DiscountAmount = money.FromDecimal(discountAmount)
	c.MinPurchase = money.FromDecimal(minPurchase)
	if maxDiscount.Valid {
		m := money.FromDecimal(maxDiscount.Decimal)
		c.MaxDiscount = &m
	}
	return c, nil
}
