package cart

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/coupons"
	"github.com/petcarevet/clinic/internal/logging"
	"github.com/petcarevet/clinic/internal/models"
	"github.com/petcarevet/clinic/internal/pricing"
	"github.com/petcarevet/clinic/internal/service/token"
)

// MakeOrder turns the cart into an immutable order snapshot: prices and
// the coupon code are captured at placement time, stock and coupon
// counters are advanced with conditional updates, and the cart is
// cleared, all inside one transaction.
func (h *CartHandler) MakeOrder(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "make_order", "user_id", actor.ID)

	var req struct {
		CouponCode string `json:"coupon_code"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var (
		order      models.Order
		orderItems []models.OrderItem
		totals     pricing.Result
	)

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", actor.ID).Find(&items).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if len(items) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no items in cart")
		}

		var coupon *models.Coupon
		if req.CouponCode != "" {
			coupon, err = coupons.Validate(tx, req.CouponCode, actor.ID)
			if err != nil {
				if ce, ok := coupons.AsCouponError(err); ok {
					return echo.NewHTTPError(http.StatusBadRequest, ce.Code)
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}

		lines := make([]pricing.Line, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.Where("id = ? AND active = ?", it.ProductID, true).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return echo.NewHTTPError(http.StatusBadRequest, "product not found")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}

			// Stock is authoritative: the decrement and the availability
			// check are one statement, so concurrent checkouts cannot
			// both take the last unit.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", p.ID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, res.Error.Error())
			}
			if res.RowsAffected == 0 {
				return echo.NewHTTPError(http.StatusConflict, "insufficient stock for "+p.Name)
			}

			lines = append(lines, pricing.Line{
				ProductID: p.ID,
				Quantity:  it.Quantity,
				UnitPrice: p.Price,
			})
		}

		totals = pricing.ComputeTotals(lines, coupon)

		order = models.Order{
			UserID:     actor.ID,
			Total:      totals.Subtotal,
			Discount:   totals.Discount,
			FinalTotal: totals.FinalTotal,
			Status:     models.OrderStatusPending,
		}
		if coupon != nil {
			code := coupon.Code
			order.CouponCode = &code
		}
		if err := tx.Create(&order).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		orderItems = make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			oi := models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.UnitPrice,
			}
			if err := tx.Create(&oi).Error; err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
			orderItems = append(orderItems, oi)
		}

		if coupon != nil {
			if err := coupons.Consume(tx, coupon, actor.ID); err != nil {
				if ce, ok := coupons.AsCouponError(err); ok {
					return echo.NewHTTPError(http.StatusConflict, ce.Code)
				}
				return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
			}
		}

		if err := tx.Where("user_id = ?", actor.ID).Delete(&models.CartItem{}).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return nil
	})

	if txErr != nil {
		var he *echo.HTTPError
		if errors.As(txErr, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	l.Info("order_created", "order_id", order.ID, "final_total", totals.FinalTotal)

	h.publish(c, map[string]any{
		"type":    "order_created",
		"userID":  actor.ID,
		"orderID": order.ID,
		"total":   totals.FinalTotal,
	})

	type OrderResponse struct {
		OrderID    uint               `json:"order_id"`
		Subtotal   float64            `json:"subtotal"`
		Discount   float64            `json:"discount"`
		FinalTotal float64            `json:"final_total"`
		CouponCode *string            `json:"coupon_code"`
		Status     string             `json:"status"`
		Items      []models.OrderItem `json:"items"`
	}
	return c.JSON(http.StatusOK, OrderResponse{
		OrderID:    order.ID,
		Subtotal:   totals.Subtotal,
		Discount:   totals.Discount,
		FinalTotal: totals.FinalTotal,
		CouponCode: order.CouponCode,
		Status:     order.Status,
		Items:      orderItems,
	})
}
