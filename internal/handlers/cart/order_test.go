package cart

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petcarevet/clinic/internal/models"
)

func TestMakeOrderEmptyCart(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}

	c, _ := newRequest(t, http.MethodPost, map[string]string{}, 1)
	err := h.MakeOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestMakeOrderSnapshotsCart(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p1 := seedProduct(t, db, "Ração Premium", 89.9, 10)
	p2 := seedProduct(t, db, "Shampoo", 25.5, 4)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p1.ID, Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p2.ID, Quantity: 1}).Error)

	c, rec := newRequest(t, http.MethodPost, map[string]string{}, 1)
	require.NoError(t, h.MakeOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OrderID    uint    `json:"order_id"`
		Subtotal   float64 `json:"subtotal"`
		Discount   float64 `json:"discount"`
		FinalTotal float64 `json:"final_total"`
		Status     string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 205.3, resp.Subtotal)
	require.Equal(t, 0.0, resp.Discount)
	require.Equal(t, 205.3, resp.FinalTotal)
	require.Equal(t, models.OrderStatusPending, resp.Status)

	// Line prices are frozen at placement time.
	var orderItems []models.OrderItem
	require.NoError(t, db.Where("order_id = ?", resp.OrderID).Find(&orderItems).Error)
	require.Len(t, orderItems, 2)

	// Stock is decremented and the cart is cleared.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p1.ID).Error)
	require.Equal(t, uint(8), reloaded.Stock)

	var cartCount int64
	db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartCount)
	require.Zero(t, cartCount)
}

func TestMakeOrderWithCoupon(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Ração Premium", 100, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 1}).Error)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "OFF10", DiscountType: models.DiscountPercentage, DiscountValue: 10,
		Active: true, MaxUsesPerUser: 1,
	}).Error)

	c, rec := newRequest(t, http.MethodPost, map[string]string{"coupon_code": "off10"}, 1)
	require.NoError(t, h.MakeOrder(c))

	var resp struct {
		Subtotal   float64 `json:"subtotal"`
		Discount   float64 `json:"discount"`
		FinalTotal float64 `json:"final_total"`
		CouponCode *string `json:"coupon_code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 100.0, resp.Subtotal)
	require.Equal(t, 10.0, resp.Discount)
	require.Equal(t, 90.0, resp.FinalTotal)
	require.NotNil(t, resp.CouponCode)
	require.Equal(t, "OFF10", *resp.CouponCode)

	// Redemption counters advanced inside the order transaction.
	var coupon models.Coupon
	require.NoError(t, db.Where("code = ?", "OFF10").First(&coupon).Error)
	require.Equal(t, uint(1), coupon.CurrentUses)

	var usage models.CouponUsage
	require.NoError(t, db.Where("coupon_id = ? AND user_id = ?", coupon.ID, 1).First(&usage).Error)
	require.Equal(t, uint(1), usage.UsageCount)
}

func TestMakeOrderInvalidCoupon(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Ração", 50, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 1}).Error)

	c, _ := newRequest(t, http.MethodPost, map[string]string{"coupon_code": "NOPE"}, 1)
	err := h.MakeOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
	require.Equal(t, "COUPON_NOT_FOUND", he.Message)

	// Rejected order leaves the cart and stock untouched.
	var cartCount int64
	db.Model(&models.CartItem{}).Count(&cartCount)
	require.Equal(t, int64(1), cartCount)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, uint(10), reloaded.Stock)
}

func TestMakeOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Ração Premium", 50, 1)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 3}).Error)

	c, _ := newRequest(t, http.MethodPost, map[string]string{}, 1)
	err := h.MakeOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusConflict, he.Code)

	// The transaction rolled back: stock unchanged, no order rows.
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, uint(1), reloaded.Stock)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	require.Zero(t, orderCount)
}

func TestMakeOrderExhaustedCouponAtConsume(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Ração", 50, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 1}).Error)

	one := uint(1)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "LAST", DiscountType: models.DiscountFixed, DiscountValue: 5,
		Active: true, MaxUses: &one, CurrentUses: 1, MaxUsesPerUser: 1,
	}).Error)

	c, _ := newRequest(t, http.MethodPost, map[string]string{"coupon_code": "LAST"}, 1)
	err := h.MakeOrder(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
	require.Equal(t, "COUPON_EXHAUSTED", he.Message)
}

func TestMakeOrderFixedCouponClamped(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Petisco", 30, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 1}).Error)
	require.NoError(t, db.Create(&models.Coupon{
		Code: "MEGA50", DiscountType: models.DiscountFixed, DiscountValue: 50,
		Active: true, MaxUsesPerUser: 1,
	}).Error)

	c, rec := newRequest(t, http.MethodPost, map[string]string{"coupon_code": "MEGA50"}, 1)
	require.NoError(t, h.MakeOrder(c))

	var resp struct {
		Discount   float64 `json:"discount"`
		FinalTotal float64 `json:"final_total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 30.0, resp.Discount)
	require.Equal(t, 0.0, resp.FinalTotal)
}
