package model

import (
	"time"

	"storefront/internal/money"
)

// AddCartItemRequest is the payload for adding a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ApplyCouponRequest is the payload for applying a coupon to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// CreateOrderRequest is the checkout payload. Shipping fee and tax arrive
// already computed; this service only folds them into the grand total.
type CreateOrderRequest struct {
	Street        string      `json:"street"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	ZipCode       string      `json:"zipCode"`
	Country       string      `json:"country"`
	PaymentMethod string      `json:"paymentMethod"`
	ShippingFee   money.Money `json:"shippingFee"`
	Tax           money.Money `json:"tax"`
	CouponCode    *string     `json:"couponCode,omitempty"`
}

// Address builds the shipping address from the request fields.
func (r *CreateOrderRequest) Address() Address {
	return Address{
		Street:  r.Street,
		City:    r.City,
		State:   r.State,
		ZipCode: r.ZipCode,
		Country: r.Country,
	}
}

// UpdateOrderRequest carries an admin status update. Either field may be
// omitted to leave it unchanged.
type UpdateOrderRequest struct {
	OrderStatus   *string `json:"orderStatus,omitempty"`
	PaymentStatus *string `json:"paymentStatus,omitempty"`
}

// CouponRequest is the admin payload for creating a coupon.
type CouponRequest struct {
	Code           string       `json:"code"`
	Description    string       `json:"description"`
	DiscountType   DiscountType `json:"discountType"`
	DiscountAmount money.Money  `json:"discountAmount"`
	MinPurchase    money.Money  `json:"minPurchase"`
	MaxDiscount    *money.Money `json:"maxDiscount,omitempty"`
	StartsAt       time.Time    `json:"startsAt"`
	EndsAt         time.Time    `json:"endsAt"`
	UsageLimit     *int         `json:"usageLimit,omitempty"`
}
