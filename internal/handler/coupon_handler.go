package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/money"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon administration and lookup requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// List handles GET /api/coupons.
func (h *CouponHandler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.service.ListCoupons(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, coupons)
}

// Create handles POST /api/coupons.
func (h *CouponHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	var req model.CouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err, h.logger)
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, coupon)
}

// Preview handles GET /api/coupons/{code}/preview?amount=. It reports the
// discount the coupon would grant without consuming a use.
func (h *CouponHandler) Preview(w http.ResponseWriter, r *http.Request) {
	amount, err := money.FromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, model.NewDomainError(model.ErrCodeInvalidJSON, "Query parameter amount must be a decimal"), h.logger)
		return
	}

	discount, err := h.service.PreviewDiscount(r.Context(), r.PathValue("code"), amount)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]money.Money{"discount": discount})
}
