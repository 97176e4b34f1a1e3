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

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	cartRepo   repository.CartRepository
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	couponRepo repository.CouponRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		cartRepo:   cartRepo,
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "order").Logger(),
	}
}

// Checkout converts the owner's cart into a price-frozen order. The cart
// lock, the coupon redemption, the order insert and the cart clear all run
// in one transaction: either the order exists, the coupon use is consumed
// and the cart is empty, or none of it happened.
func (s *orderService) Checkout(ctx context.Context, ownerID uuid.UUID, req *model.CreateOrderRequest) (*model.Order, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		order, err := s.checkoutOnce(ctx, ownerID, req)
		if err == nil {
			return order, nil
		}
		if !repository.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Warn().
			Err(err).
			Str("owner_id", ownerID.String()).
			Int("attempt", attempt).
			Msg("checkout transaction conflict, retrying")
	}

	s.logger.Error().
		Err(lastErr).
		Str("owner_id", ownerID.String()).
		Msg("checkout retries exhausted")
	return nil, model.ErrConflict
}

func (s *orderService) checkoutOnce(ctx context.Context, ownerID uuid.UUID, req *model.CreateOrderRequest) (order *model.Order, err error) {
	tx, err := s.cartRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	c, _, err := s.cartRepo.GetOrCreateForUpdate(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	subtotal := money.Zero()
	for i := range c.Items {
		subtotal = subtotal.Add(c.Items[i].LineTotal())
	}

	now := time.Now()

	var (
		discount    = money.Zero()
		discountPtr *money.Money
		couponCode  *string
	)
	if req.CouponCode != nil && strings.TrimSpace(*req.CouponCode) != "" {
		code := strings.TrimSpace(*req.CouponCode)

		coup, err := s.couponRepo.FindByCodeTx(ctx, tx, code)
		if err != nil {
			if errors.Is(err, model.ErrCouponNotFound) {
				s.logger.Debug().Str("code", code).Msg("unknown coupon code at checkout")
				return nil, model.ErrInvalidCoupon
			}
			return nil, err
		}

		discount, err = coupon.Redeem(coup, subtotal, now)
		if err != nil {
			s.logger.Debug().
				Str("code", coup.Code).
				Str("subtotal", subtotal.String()).
				Msg("coupon rejected at checkout")
			return nil, err
		}

		if coup.HasUsageLimit() {
			if err := s.couponRepo.ConsumeUse(ctx, tx, coup.ID); err != nil {
				return nil, err
			}
		}

		if discount.IsPositive() {
			discountPtr = &discount
		}
		couponCode = &coup.Code
	}

	grandTotal, err := req.ShippingFee.Add(req.Tax).Add(subtotal).Sub(discount)
	if err != nil {
		return nil, fmt.Errorf("grand total computation: %w", err)
	}

	order = &model.Order{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		ShippingAddress: req.Address(),
		PaymentMethod:   req.PaymentMethod,
		ShippingFee:     req.ShippingFee,
		Tax:             req.Tax,
		Subtotal:        subtotal,
		DiscountAmount:  discountPtr,
		GrandTotal:      grandTotal,
		CouponCode:      couponCode,
		OrderStatus:     model.OrderPending,
		PaymentStatus:   model.PaymentPending,
		CreatedAt:       now,
	}

	order.Items = make([]model.OrderItem, len(c.Items))
	for i, item := range c.Items {
		order.Items[i] = model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	if err = s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	c.Items = nil
	c.CouponCode = nil
	cart.Recalculate(c, nil, now)
	if err = s.cartRepo.Save(ctx, tx, c); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("owner_id", ownerID.String()).
		Int("item_count", len(order.Items)).
		Str("grand_total", order.GrandTotal.String()).
		Msg("order created")

	return order, nil
}

// GetOrder retrieves an order. A customer asking for another owner's order
// gets not-found rather than a hint that the order exists.
func (s *orderService) GetOrder(ctx context.Context, actor model.User, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.OwnerID != actor.ID {
		s.logger.Debug().
			Str("order_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Msg("order belongs to another owner")
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders retrieves the actor's orders, or all orders for an admin.
func (s *orderService) ListOrders(ctx context.Context, actor model.User) ([]model.Order, error) {
	if actor.IsAdmin() {
		return s.orderRepo.ListAll(ctx)
	}
	return s.orderRepo.ListByOwner(ctx, actor.ID)
}

// UpdateOrderStatus updates any subset of the order's status fields.
func (s *orderService) UpdateOrderStatus(ctx context.Context, actor model.User, id uuid.UUID, req *model.UpdateOrderRequest) (*model.Order, error) {
	if !actor.IsAdmin() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actor.ID.String()).
			Msg("non-admin attempted order status update")
		return nil, model.ErrForbidden
	}

	var orderStatus *model.OrderStatus
	if req.OrderStatus != nil {
		v, ok := model.ParseOrderStatus(*req.OrderStatus)
		if !ok {
			return nil, model.NewDomainError(model.ErrCodeInvalidJSON, "Unknown order status")
		}
		orderStatus = &v
	}

	var paymentStatus *model.PaymentStatus
	if req.PaymentStatus != nil {
		v, ok := model.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			return nil, model.NewDomainError(model.ErrCodeInvalidJSON, "Unknown payment status")
		}
		paymentStatus = &v
	}

	if orderStatus == nil && paymentStatus == nil {
		return s.orderRepo.GetByID(ctx, id)
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, orderStatus, paymentStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("order_status", string(order.OrderStatus)).
		Str("payment_status", string(order.PaymentStatus)).
		Msg("order status updated")

	return order, nil
}

func validateCheckoutRequest(req *model.CreateOrderRequest) error {
	if req == nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Request body is required")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Payment method is required")
	}
	if req.ShippingFee.IsNegative() || req.Tax.IsNegative() {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Shipping fee and tax must not be negative")
	}
	return nil
}
