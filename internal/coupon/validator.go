// Package coupon implements coupon validation and discount computation.
// All functions here are pure; usage-count consumption happens at the
// storage layer so concurrent redemptions cannot over-redeem a coupon.
package coupon

import (
	"time"

	"storefront/internal/model"
	"storefront/internal/money"
)

// IsValid reports whether the coupon can be applied to an order of the
// given amount at the given time. A coupon is valid when it is active,
// inside its validity window, below its usage limit, and the order amount
// meets the minimum purchase.
func IsValid(c *model.Coupon, orderAmount money.Money, now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.StartsAt) || now.After(c.EndsAt) {
		return false
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false
	}
	return orderAmount.Cmp(c.MinPurchase) >= 0
}

// ComputeDiscount returns the discount the coupon grants against the given
// order amount, or zero when the coupon is not valid.
//
// Percentage discounts are capped at MaxDiscount when one is set. Fixed
// discounts never exceed the amount they discount.
func ComputeDiscount(c *model.Coupon, orderAmount money.Money, now time.Time) money.Money {
	if !IsValid(c, orderAmount, now) {
		return money.Zero()
	}

	switch c.DiscountType {
	case model.DiscountPercentage:
		discount := orderAmount.PercentOf(c.DiscountAmount)
		if c.MaxDiscount != nil {
			discount = money.Min(discount, *c.MaxDiscount)
		}
		return discount
	case model.DiscountFixed:
		return money.Min(c.DiscountAmount, orderAmount)
	default:
		return money.Zero()
	}
}

// Redeem re-validates the coupon against the order amount and returns the
// discount to apply. It fails with model.ErrInvalidCoupon when validation
// fails. The caller must pair a successful Redeem with the storage layer's
// conditional usage increment inside the same transaction; that increment
// is the only place a usage count changes.
func Redeem(c *model.Coupon, orderAmount money.Money, now time.Time) (money.Money, error) {
	if !IsValid(c, orderAmount, now) {
		return money.Zero(), model.ErrInvalidCoupon
	}
	return ComputeDiscount(c, orderAmount, now), nil
}
