package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/money"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// maxTxRetries bounds retries of transactions that failed with a transient
// concurrency error (serialization failure or deadlock).
const maxTxRetries = 3

// cartMutation mutates the locked cart. It may return the live coupon the
// totals should be recomputed against; when it returns nil the coupon is
// resolved from the cart's stored code instead.
type cartMutation func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error)

// cartService implements CartService. Every operation runs in a single
// transaction holding a row lock on the owner's cart, so concurrent
// mutations of the same cart serialise instead of losing updates.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart returns the owner's cart, creating an empty one on first access.
// Totals are recomputed on read so an expired coupon never shows a stale
// discount.
func (s *cartService) GetCart(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		return nil, nil
	})
}

// AddItem adds a product to the cart. Re-adding a product merges the
// quantity into the existing line and keeps the originally snapshotted
// unit price; a new line snapshots the product's current effective price.
func (s *cartService) AddItem(ctx context.Context, ownerID uuid.UUID, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		s.logger.Warn().
			Str("product_id", productID).
			Int("quantity", quantity).
			Msg("invalid quantity")
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		if item := c.FindItem(productID); item != nil {
			item.Quantity += quantity
			return nil, nil
		}
		c.Items = append(c.Items, model.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.EffectivePrice(),
		})
		return nil, nil
	})
}

// RemoveItem removes the entire line for the product. Removing a product
// that is not in the cart is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, ownerID uuid.UUID, productID string) (*model.Cart, error) {
	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				break
			}
		}
		return nil, nil
	})
}

// Clear empties the cart, dropping all items and any applied coupon.
func (s *cartService) Clear(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		c.Items = nil
		c.CouponCode = nil
		return nil, nil
	})
}

// ApplyCoupon validates the coupon against the cart's current subtotal and
// stores it on the cart. When the coupon carries a usage limit, one use is
// consumed in the same transaction as the cart save.
func (s *cartService) ApplyCoupon(ctx context.Context, ownerID uuid.UUID, code string) (*model.Cart, error) {
	code = strings.TrimSpace(code)

	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		if c.IsEmpty() {
			return nil, model.ErrEmptyCart
		}

		coup, err := s.couponRepo.FindByCodeTx(ctx, tx, code)
		if err != nil {
			if errors.Is(err, model.ErrCouponNotFound) {
				s.logger.Debug().Str("code", code).Msg("unknown coupon code")
				return nil, model.ErrInvalidCoupon
			}
			return nil, err
		}

		subtotal := money.Zero()
		for i := range c.Items {
			subtotal = subtotal.Add(c.Items[i].LineTotal())
		}

		if _, err := coupon.Redeem(coup, subtotal, time.Now()); err != nil {
			s.logger.Debug().
				Str("code", coup.Code).
				Str("subtotal", subtotal.String()).
				Msg("coupon rejected")
			return nil, err
		}

		if coup.HasUsageLimit() {
			if err := s.couponRepo.ConsumeUse(ctx, tx, coup.ID); err != nil {
				return nil, err
			}
		}

		c.CouponCode = &coup.Code

		// Recompute against the coupon state as validated, not the
		// post-increment row, so consuming the last remaining use does
		// not void this cart's own discount.
		return coup, nil
	})
}

// RemoveCoupon clears the applied coupon from the cart. A usage count
// consumed at apply time is not refunded.
func (s *cartService) RemoveCoupon(ctx context.Context, ownerID uuid.UUID) (*model.Cart, error) {
	return s.mutate(ctx, ownerID, func(ctx context.Context, tx pgx.Tx, c *model.Cart) (*model.Coupon, error) {
		c.CouponCode = nil
		return nil, nil
	})
}

// mutate runs fn against the owner's locked cart, recomputes totals, and
// saves, retrying the whole transaction on transient concurrency failures.
func (s *cartService) mutate(ctx context.Context, ownerID uuid.UUID, fn cartMutation) (*model.Cart, error) {
	var lastErr error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		c, err := s.mutateOnce(ctx, ownerID, fn)
		if err == nil {
			return c, nil
		}
		if !repository.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn().
			Err(err).
			Str("owner_id", ownerID.String()).
			Int("attempt", attempt).
			Msg("cart transaction conflict, retrying")
	}

	s.logger.Error().
		Err(lastErr).
		Str("owner_id", ownerID.String()).
		Msg("cart transaction retries exhausted")
	return nil, model.ErrConflict
}

func (s *cartService) mutateOnce(ctx context.Context, ownerID uuid.UUID, fn cartMutation) (c *model.Cart, err error) {
	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cart transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	c, _, err = s.cartRepo.GetOrCreateForUpdate(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	applied, err := fn(ctx, tx, c)
	if err != nil {
		return nil, err
	}

	if applied == nil && c.CouponCode != nil {
		applied, err = s.couponRepo.FindByCodeTx(ctx, tx, *c.CouponCode)
		if err != nil && !errors.Is(err, model.ErrCouponNotFound) {
			return nil, err
		}
	}

	cart.Recalculate(c, applied, time.Now())

	if err = s.cartRepo.Save(ctx, tx, c); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cart transaction: %w", err)
	}

	return c, nil
}
