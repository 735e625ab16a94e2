package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petcarevet/clinic/internal/models"
)

func TestValidateCouponEndpoint(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}
	require.NoError(t, db.Create(&models.Coupon{
		Code: "BEMVINDO", DiscountType: models.DiscountPercentage, DiscountValue: 15,
		Active: true, MaxUsesPerUser: 1,
	}).Error)

	c, rec := newRequest(t, http.MethodPost, map[string]string{"code": "bemvindo"}, 1, "user")
	require.NoError(t, h.ValidateCoupon(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Coupon
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BEMVINDO", resp.Code)

	// The pre-check never consumes a redemption slot.
	var reloaded models.Coupon
	require.NoError(t, db.Where("code = ?", "BEMVINDO").First(&reloaded).Error)
	require.Zero(t, reloaded.CurrentUses)
}

func TestValidateCouponEndpointErrorCode(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}

	c, rec := newRequest(t, http.MethodPost, map[string]string{"code": "NOPE"}, 1, "user")
	require.NoError(t, h.ValidateCoupon(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "COUPON_NOT_FOUND", resp["code"])
}

func TestCreateCoupon(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}

	c, rec := newRequest(t, http.MethodPost, map[string]any{
		"code": " off20 ", "discount_type": "percentage", "discount_value": 20,
		"max_uses_per_user": 1,
	}, 9, "admin")
	require.NoError(t, h.CreateCoupon(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var coupon models.Coupon
	require.NoError(t, db.First(&coupon).Error)
	require.Equal(t, "OFF20", coupon.Code)
	require.True(t, coupon.Active)
}

func TestCreateCouponValidation(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}

	cases := []map[string]any{
		{"discount_type": "percentage", "discount_value": 10, "max_uses_per_user": 1},
		{"code": "X", "discount_type": "percentage", "discount_value": 0, "max_uses_per_user": 1},
		{"code": "X", "discount_type": "percentage", "discount_value": 101, "max_uses_per_user": 1},
		{"code": "X", "discount_type": "fixed", "discount_value": -5, "max_uses_per_user": 1},
		{"code": "X", "discount_type": "bogus", "discount_value": 10, "max_uses_per_user": 1},
		{"code": "X", "discount_type": "fixed", "discount_value": 10, "max_uses_per_user": 0},
	}

	for _, body := range cases {
		c, _ := newRequest(t, http.MethodPost, body, 9, "admin")
		err := h.CreateCoupon(c)
		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		require.Equal(t, http.StatusBadRequest, he.Code)
	}
}

func TestCreateCouponDuplicateCode(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}
	require.NoError(t, db.Create(&models.Coupon{
		Code: "OFF20", DiscountType: models.DiscountPercentage, DiscountValue: 20,
		Active: true, MaxUsesPerUser: 1,
	}).Error)

	c, _ := newRequest(t, http.MethodPost, map[string]any{
		"code": "OFF20", "discount_type": "percentage", "discount_value": 20,
		"max_uses_per_user": 1,
	}, 9, "admin")
	err := h.CreateCoupon(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusConflict, he.Code)
}

func TestPatchCouponDeactivates(t *testing.T) {
	db := newTestDB(t)
	h := &CouponHandler{DB: db}
	require.NoError(t, db.Create(&models.Coupon{
		Code: "OFF20", DiscountType: models.DiscountPercentage, DiscountValue: 20,
		Active: true, MaxUsesPerUser: 1,
	}).Error)

	active := false
	c, rec := newRequest(t, http.MethodPatch, map[string]any{
		"code": "OFF20", "discount_type": "percentage", "discount_value": 20,
		"max_uses_per_user": 1, "active": active,
	}, 9, "admin")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.PatchCoupon(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var coupon models.Coupon
	require.NoError(t, db.First(&coupon).Error)
	require.False(t, coupon.Active)
}
