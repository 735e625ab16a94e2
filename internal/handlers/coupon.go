package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/coupons"
	"github.com/petcarevet/clinic/internal/models"
	"github.com/petcarevet/clinic/internal/service/token"
)

type CouponHandler struct {
	DB *gorm.DB
}

// ValidateCoupon is the storefront pre-check before checkout. It never
// consumes a redemption slot.
func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	coupon, err := coupons.Validate(h.DB, req.Code, actor.ID)
	if err != nil {
		if ce, ok := coupons.AsCouponError(err); ok {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"code":  ce.Code,
				"error": ce.Msg,
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, coupon)
}

type couponRequest struct {
	Code           string     `json:"code"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MaxUses        *uint      `json:"max_uses"`
	MaxUsesPerUser uint       `json:"max_uses_per_user"`
	Active         *bool      `json:"active"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func (r *couponRequest) validate() error {
	if r.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	switch r.DiscountType {
	case models.DiscountPercentage:
		if r.DiscountValue <= 0 || r.DiscountValue > 100 {
			return echo.NewHTTPError(http.StatusBadRequest, "percentage value must be between 0 and 100")
		}
	case models.DiscountFixed:
		if r.DiscountValue <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "fixed value must be positive")
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if r.MaxUsesPerUser < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "max_uses_per_user must be at least 1")
	}
	return nil
}

func (h *CouponHandler) ListCoupons(c echo.Context) error {
	var items []models.Coupon
	if err := h.DB.Order("created_at DESC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CouponHandler) CreateCoupon(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	coupon := models.Coupon{
		Code:           strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MaxUses:        req.MaxUses,
		MaxUsesPerUser: req.MaxUsesPerUser,
		Active:         true,
		ExpiresAt:      req.ExpiresAt,
	}
	if req.Active != nil {
		coupon.Active = *req.Active
	}

	if err := h.DB.Create(&coupon).Error; err != nil {
		return echo.NewHTTPError(http.StatusConflict, "coupon code already exists")
	}
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHandler) PatchCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	var coupon models.Coupon
	if err := h.DB.First(&coupon, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "coupon not found")
	}

	coupon.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	coupon.DiscountType = req.DiscountType
	coupon.DiscountValue = req.DiscountValue
	coupon.MaxUses = req.MaxUses
	coupon.MaxUsesPerUser = req.MaxUsesPerUser
	coupon.ExpiresAt = req.ExpiresAt
	if req.Active != nil {
		coupon.Active = *req.Active
	}

	if err := h.DB.Save(&coupon).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHandler) DeleteCoupon(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.Coupon{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
