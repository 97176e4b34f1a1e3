package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartFixture(ownerID uuid.UUID, items ...model.CartItem) *model.Cart {
	return &model.Cart{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Items:   items,
	}
}

func newFixedCoupon(code string, amount, minPurchase string, usageLimit *int) *model.Coupon {
	return &model.Coupon{
		ID:             uuid.New(),
		Code:           code,
		DiscountType:   model.DiscountFixed,
		DiscountAmount: money.MustFromString(amount),
		MinPurchase:    money.MustFromString(minPurchase),
		StartsAt:       time.Now().Add(-time.Hour),
		EndsAt:         time.Now().Add(time.Hour),
		Active:         true,
		UsageLimit:     usageLimit,
	}
}

func TestCartService_AddItem_NewLine(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	product := &model.Product{
		ID:        "P001",
		Name:      "Widget",
		Price:     money.MustFromString("12.00"),
		SalePrice: money.MustFromString("10.00"),
	}
	cartRow := newCartFixture(ownerID)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockProductRepo.On("GetByID", ctx, "P001").Return(product, nil)
	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, true, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.AddItem(ctx, ownerID, "P001", 2)

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	// Sale price wins over list price when set.
	assert.Equal(t, "10.00", c.Items[0].UnitPrice.String())
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "20.00", c.Subtotal.String())
	assert.Equal(t, "20.00", c.NetTotal.String())

	mockCartRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestCartService_AddItem_MergesQuantityAndKeepsSnapshotPrice(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	// Catalogue price moved since the first add; the snapshot must win.
	product := &model.Product{ID: "P001", Price: money.MustFromString("15.00")}
	cartRow := newCartFixture(ownerID, model.CartItem{
		ProductID: "P001",
		Quantity:  1,
		UnitPrice: money.MustFromString("9.99"),
	})

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockProductRepo.On("GetByID", ctx, "P001").Return(product, nil)
	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.AddItem(ctx, ownerID, "P001", 2)

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "9.99", c.Items[0].UnitPrice.String())
	assert.Equal(t, "29.97", c.Subtotal.String())
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	for _, qty := range []int{0, -1} {
		c, err := svc.AddItem(ctx, uuid.New(), "P001", qty)
		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
		assert.Nil(t, c)
	}

	mockProductRepo.AssertNotCalled(t, "GetByID")
	mockCartRepo.AssertNotCalled(t, "BeginTx")
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockProductRepo.On("GetByID", ctx, "P404").Return(nil, model.ErrProductNotFound)

	c, err := svc.AddItem(ctx, uuid.New(), "P404", 1)

	assert.ErrorIs(t, err, model.ErrProductNotFound)
	assert.Nil(t, c)
	mockCartRepo.AssertNotCalled(t, "BeginTx")
}

func TestCartService_RemoveItem(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 2, UnitPrice: money.MustFromString("10.00")},
		model.CartItem{ProductID: "P002", Quantity: 1, UnitPrice: money.MustFromString("5.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.RemoveItem(ctx, ownerID, "P001")

	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "P002", c.Items[0].ProductID)
	assert.Equal(t, "5.00", c.Subtotal.String())
	assert.Equal(t, "5.00", c.NetTotal.String())
}

func TestCartService_RemoveItem_AbsentProductIsNoOp(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("10.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.RemoveItem(ctx, ownerID, "P999")

	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, "10.00", c.Subtotal.String())
}

func TestCartService_Clear(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	code := "SAVE5"
	discount := money.MustFromString("5.00")
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 2, UnitPrice: money.MustFromString("10.00")},
	)
	cartRow.CouponCode = &code
	cartRow.DiscountAmount = &discount

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.Clear(ctx, ownerID)

	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Nil(t, c.CouponCode)
	assert.Nil(t, c.DiscountAmount)
	assert.True(t, c.Subtotal.IsZero())
	assert.True(t, c.NetTotal.IsZero())
	mockCouponRepo.AssertNotCalled(t, "FindByCodeTx")
}

func TestCartService_ApplyCoupon_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	limit := 5
	coup := newFixedCoupon("SAVE5", "5.00", "20.00", &limit)
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 2, UnitPrice: money.MustFromString("10.00")},
		model.CartItem{ProductID: "P002", Quantity: 1, UnitPrice: money.MustFromString("5.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, "SAVE5").Return(coup, nil)
	mockCouponRepo.On("ConsumeUse", ctx, mockTx, coup.ID).Return(nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "SAVE5")

	require.NoError(t, err)
	require.NotNil(t, c.CouponCode)
	assert.Equal(t, "SAVE5", *c.CouponCode)
	require.NotNil(t, c.DiscountAmount)
	assert.Equal(t, "5.00", c.DiscountAmount.String())
	assert.Equal(t, "25.00", c.Subtotal.String())
	assert.Equal(t, "20.00", c.NetTotal.String())

	mockCouponRepo.AssertExpectations(t)
}

func TestCartService_ApplyCoupon_NoLimitSkipsConsume(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	coup := newFixedCoupon("SAVE5", "5.00", "0.00", nil)
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("30.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, "SAVE5").Return(coup, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "SAVE5")

	require.NoError(t, err)
	require.NotNil(t, c.DiscountAmount)
	assert.Equal(t, "5.00", c.DiscountAmount.String())
	mockCouponRepo.AssertNotCalled(t, "ConsumeUse")
}

func TestCartService_ApplyCoupon_LastUseKeepsOwnDiscount(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	// One remaining use; consuming it must not void this cart's discount.
	limit := 1
	coup := newFixedCoupon("LAST1", "5.00", "0.00", &limit)
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("30.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, "LAST1").Return(coup, nil)
	mockCouponRepo.On("ConsumeUse", ctx, mockTx, coup.ID).Return(nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "LAST1")

	require.NoError(t, err)
	require.NotNil(t, c.DiscountAmount)
	assert.Equal(t, "5.00", c.DiscountAmount.String())
	assert.Equal(t, "25.00", c.NetTotal.String())
}

func TestCartService_ApplyCoupon_EmptyCart(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	cartRow := newCartFixture(ownerID)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, true, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "SAVE5")

	assert.ErrorIs(t, err, model.ErrEmptyCart)
	assert.Nil(t, c)
	mockCouponRepo.AssertNotCalled(t, "FindByCodeTx")
	mockCartRepo.AssertNotCalled(t, "Save")
	assert.True(t, mockTx.rolledBack)
}

func TestCartService_ApplyCoupon_BelowMinimumPurchase(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	coup := newFixedCoupon("SAVE5", "5.00", "50.00", nil)
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("10.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, "SAVE5").Return(coup, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "SAVE5")

	assert.ErrorIs(t, err, model.ErrInvalidCoupon)
	assert.Nil(t, c)
	mockCouponRepo.AssertNotCalled(t, "ConsumeUse")
	mockCartRepo.AssertNotCalled(t, "Save")
}

func TestCartService_ApplyCoupon_UnknownCode(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("10.00")},
	)

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, "NOPE").Return(nil, model.ErrCouponNotFound)
	mockTx.On("Rollback", ctx).Return(nil)

	c, err := svc.ApplyCoupon(ctx, ownerID, "NOPE")

	assert.ErrorIs(t, err, model.ErrInvalidCoupon)
	assert.Nil(t, c)
}

func TestCartService_RemoveCoupon_NoUsageRefund(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	code := "SAVE5"
	discount := money.MustFromString("5.00")
	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 2, UnitPrice: money.MustFromString("10.00")},
		model.CartItem{ProductID: "P002", Quantity: 1, UnitPrice: money.MustFromString("5.00")},
	)
	cartRow.CouponCode = &code
	cartRow.DiscountAmount = &discount

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.RemoveCoupon(ctx, ownerID)

	require.NoError(t, err)
	assert.Nil(t, c.CouponCode)
	assert.Nil(t, c.DiscountAmount)
	assert.Equal(t, "25.00", c.Subtotal.String())
	assert.Equal(t, "25.00", c.NetTotal.String())
	mockCouponRepo.AssertNotCalled(t, "ConsumeUse")
}

func TestCartService_GetCart_RecomputesAgainstLiveCoupon(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	// The stored discount is stale; the live coupon is no longer active,
	// so the discount must collapse while the code stays on the cart.
	code := "EXPIRED"
	staleDiscount := money.MustFromString("5.00")
	coup := newFixedCoupon(code, "5.00", "0.00", nil)
	coup.Active = false

	cartRow := newCartFixture(ownerID,
		model.CartItem{ProductID: "P001", Quantity: 1, UnitPrice: money.MustFromString("30.00")},
	)
	cartRow.CouponCode = &code
	cartRow.DiscountAmount = &staleDiscount

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(cartRow, false, nil)
	mockCouponRepo.On("FindByCodeTx", ctx, mockTx, code).Return(coup, nil)
	mockCartRepo.On("Save", ctx, mockTx, mock.AnythingOfType("*model.Cart")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	c, err := svc.GetCart(ctx, ownerID)

	require.NoError(t, err)
	require.NotNil(t, c.CouponCode)
	assert.Nil(t, c.DiscountAmount)
	assert.Equal(t, "30.00", c.NetTotal.String())
}

func TestCartService_RetriesExhaustedBecomeConflict(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()
	ownerID := uuid.New()

	mockCartRepo := new(MockCartRepository)
	mockProductRepo := new(MockProductRepository)
	mockCouponRepo := new(MockCouponRepository)
	mockTx := new(MockTx)

	svc := NewCartService(mockCartRepo, mockProductRepo, mockCouponRepo, logger)

	serialization := &pgconn.PgError{Code: "40001"}
	mockCartRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockCartRepo.On("GetOrCreateForUpdate", ctx, mockTx, ownerID).Return(nil, false, serialization)
	mockTx.On("Rollback", ctx).Return(nil)

	c, err := svc.GetCart(ctx, ownerID)

	assert.ErrorIs(t, err, model.ErrConflict)
	assert.Nil(t, c)
	mockCartRepo.AssertNumberOfCalls(t, "BeginTx", maxTxRetries)
}
