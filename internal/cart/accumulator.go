// Package cart recomputes a cart's derived totals from its line items.
package cart

import (
	"time"

	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/money"
)

// Recalculate sets the cart's subtotal, discount and net total from its
// current line items and the live coupon state. It must be called after
// every structural mutation so the totals always match the items.
//
// The discount is recomputed from the coupon definition against the fresh
// subtotal rather than trusted from a previously stored value; a cached
// discount must not survive a cart-content change. When the applied coupon
// no longer grants anything (expired, exhausted, or the subtotal dropped
// below the minimum purchase), the discount collapses to zero but the code
// stays on the cart for the owner to see or remove.
//
// Pure with respect to its inputs apart from mutating c in place; performs
// no I/O. The applied coupon may be nil when the cart carries no code or
// the code no longer resolves.
func Recalculate(c *model.Cart, applied *model.Coupon, now time.Time) {
	subtotal := money.Zero()
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].LineTotal())
	}
	c.Subtotal = subtotal

	if c.CouponCode == nil || applied == nil {
		c.DiscountAmount = nil
		c.NetTotal = subtotal
		return
	}

	discount := coupon.ComputeDiscount(applied, subtotal, now)
	net, err := subtotal.Sub(discount)
	if err != nil {
		// ComputeDiscount never exceeds the amount it discounts, so a
		// negative net total is unreachable; treat it as zero discount.
		c.DiscountAmount = nil
		c.NetTotal = subtotal
		return
	}

	c.DiscountAmount = &discount
	c.NetTotal = net
}
