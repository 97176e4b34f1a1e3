package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeEmptyCart       = "EMPTY_CART"
	ErrCodeInvalidCoupon   = "INVALID_COUPON"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeDuplicateCoupon = "DUPLICATE_COUPON"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// DomainError carries a machine-readable code alongside a user-facing message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrCouponNotFound  = NewDomainError(ErrCodeNotFound, "Coupon not found")
	ErrEmptyCart       = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInvalidCoupon   = NewDomainError(ErrCodeInvalidCoupon, "Coupon is expired or invalid for this order")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrDuplicateCoupon = NewDomainError(ErrCodeDuplicateCoupon, "Coupon code already exists")
	ErrUnauthenticated = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden       = NewDomainError(ErrCodeForbidden, "Operation not permitted for this role")
	ErrConflict        = NewDomainError(ErrCodeConflict, "Concurrent modification, please retry")
)
