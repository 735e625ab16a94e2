package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/models"
	"github.com/petcarevet/clinic/internal/mykafka"
	"github.com/petcarevet/clinic/internal/service/token"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
}

func orderTransitionAllowed(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type orderWithItems struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

func (h *OrderHandler) attachItems(orders []models.Order) ([]orderWithItems, error) {
	out := make([]orderWithItems, 0, len(orders))
	for _, o := range orders {
		var items []models.OrderItem
		if err := h.DB.Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
			return nil, err
		}
		out = append(out, orderWithItems{Order: o, Items: items})
	}
	return out, nil
}

// ListMyOrders returns the calling user's orders, newest first.
func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Where("user_id = ?", actor.ID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out, err := h.attachItems(orders)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.DB.Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	out, err := h.attachItems(orders)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

// UpdateOrderStatus moves an order along the fulfilment flow. Unknown or
// backward edges are rejected without touching the row.
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	var order models.Order
	if err := h.DB.First(&order, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	if !orderTransitionAllowed(order.Status, req.Status) {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("cannot transition order from %s to %s", order.Status, req.Status))
	}

	if err := h.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	order.Status = req.Status

	if h.Producer != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		event := map[string]any{
			"type":    "order_status_changed",
			"userID":  order.UserID,
			"orderID": order.ID,
			"status":  order.Status,
		}
		if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(order.UserID), event); err != nil {
			c.Logger().Errorf("Kafka publish error: %v", err)
		}
	}

	return c.JSON(http.StatusOK, order)
}
