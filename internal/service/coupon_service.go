package service

import (
	"context"
	"strings"
	"time"

	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/money"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(couponRepo repository.CouponRepository, logger zerolog.Logger) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// ListCoupons retrieves all coupons.
func (s *couponService) ListCoupons(ctx context.Context) ([]model.Coupon, error) {
	return s.couponRepo.GetAll(ctx)
}

// CreateCoupon persists a new coupon definition. Codes are stored
// uppercased; a taken code fails with ErrDuplicateCoupon.
func (s *couponService) CreateCoupon(ctx context.Context, actor model.User, req *model.CouponRequest) (*model.Coupon, error) {
	if !actor.IsAdmin() {
		s.logger.Warn().
			Str("actor_id", actor.ID.String()).
			Msg("non-admin attempted coupon creation")
		return nil, model.ErrForbidden
	}

	if err := validateCouponRequest(req); err != nil {
		return nil, err
	}

	c := &model.Coupon{
		ID:             uuid.New(),
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:    req.Description,
		DiscountType:   req.DiscountType,
		DiscountAmount: req.DiscountAmount,
		MinPurchase:    req.MinPurchase,
		MaxDiscount:    req.MaxDiscount,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		Active:         true,
		UsageLimit:     req.UsageLimit,
		CreatedAt:      time.Now(),
	}

	if err := s.couponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("code", c.Code).
		Str("discount_type", string(c.DiscountType)).
		Msg("coupon created")

	return c, nil
}

// PreviewDiscount computes the discount the coupon would grant against the
// given order amount. A dry run; no usage is consumed.
func (s *couponService) PreviewDiscount(ctx context.Context, code string, orderAmount money.Money) (money.Money, error) {
	c, err := s.couponRepo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return money.Zero(), err
	}
	return coupon.ComputeDiscount(c, orderAmount, time.Now()), nil
}

func validateCouponRequest(req *model.CouponRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is required")
	}
	if strings.TrimSpace(req.Code) == "" {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Coupon code is required")
	}
	if req.DiscountType != model.DiscountPercentage && req.DiscountType != model.DiscountFixed {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Discount type must be PERCENTAGE or FIXED")
	}
	if !req.DiscountAmount.IsPositive() {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Discount amount must be positive")
	}
	if req.MinPurchase.IsNegative() {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Minimum purchase must not be negative")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Validity window must end after it starts")
	}
	if req.UsageLimit != nil && *req.UsageLimit < 1 {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Usage limit must be at least 1")
	}
	return nil
}
