package model

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/money"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the order amount, optionally
	// capped by the coupon's MaxDiscount.
	DiscountPercentage DiscountType = "PERCENTAGE"
	// DiscountFixed applies a fixed amount, capped at the order amount.
	DiscountFixed DiscountType = "FIXED"
)

// Coupon is a discount definition with a validity window and optional usage
// accounting. UsageCount only ever increases, and only through redemption.
type Coupon struct {
	ID             uuid.UUID    `json:"id"`
	Code           string       `json:"code"`
	Description    string       `json:"description"`
	DiscountType   DiscountType `json:"discountType"`
	DiscountAmount money.Money  `json:"discountAmount"`
	MinPurchase    money.Money  `json:"minPurchase"`
	MaxDiscount    *money.Money `json:"maxDiscount,omitempty"`
	StartsAt       time.Time    `json:"startsAt"`
	EndsAt         time.Time    `json:"endsAt"`
	Active         bool         `json:"active"`
	UsageLimit     *int         `json:"usageLimit,omitempty"`
	UsageCount     int          `json:"usageCount"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// HasUsageLimit reports whether redemptions of this coupon are counted
// against a limit.
func (c *Coupon) HasUsageLimit() bool {
	return c.UsageLimit != nil
}
