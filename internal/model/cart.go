package model

import (
	"time"

	"github.com/google/uuid"

	"storefront/internal/money"
)

// CartItem is a single line in a cart. UnitPrice is snapshotted when the
// product is first added and never re-read from the catalogue.
type CartItem struct {
	ID        uuid.UUID   `json:"-"`
	CartID    uuid.UUID   `json:"-"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Money `json:"unitPrice"`
}

// LineTotal returns unit price multiplied by quantity.
func (i *CartItem) LineTotal() money.Money {
	return i.UnitPrice.MulInt(i.Quantity)
}

// Cart is a user's mutable shopping cart. One cart per owner, created
// lazily on first access and never deleted. Derived totals are recomputed
// after every mutation; see the cart package.
type Cart struct {
	ID             uuid.UUID    `json:"id"`
	OwnerID        uuid.UUID    `json:"ownerId"`
	Items          []CartItem   `json:"items"`
	CouponCode     *string      `json:"couponCode,omitempty"`
	DiscountAmount *money.Money `json:"discountAmount,omitempty"`
	Subtotal       money.Money  `json:"subtotal"`
	NetTotal       money.Money  `json:"netTotal"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// FindItem returns the line for the given product, or nil when absent.
func (c *Cart) FindItem(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
