package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petcarevet/clinic/internal/models"
)

func TestOrderTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.OrderStatusPending, models.OrderStatusConfirmed, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPending, models.OrderStatusShipped, false},
		{models.OrderStatusConfirmed, models.OrderStatusShipped, true},
		{models.OrderStatusConfirmed, models.OrderStatusCancelled, true},
		{models.OrderStatusShipped, models.OrderStatusDelivered, true},
		{models.OrderStatusShipped, models.OrderStatusCancelled, false},
		{models.OrderStatusDelivered, models.OrderStatusShipped, false},
		{models.OrderStatusCancelled, models.OrderStatusConfirmed, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, orderTransitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db := newTestDB(t)
	h := &OrderHandler{DB: db}

	order := models.Order{UserID: 1, Total: 100, FinalTotal: 100, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(&order).Error)

	c, rec := newRequest(t, http.MethodPatch, map[string]string{"status": models.OrderStatusConfirmed}, 9, "admin")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateOrderStatus(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, db.First(&order).Error)
	require.Equal(t, models.OrderStatusConfirmed, order.Status)
}

func TestUpdateOrderStatusInvalidEdge(t *testing.T) {
	db := newTestDB(t)
	h := &OrderHandler{DB: db}

	order := models.Order{UserID: 1, Total: 100, FinalTotal: 100, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(&order).Error)

	c, _ := newRequest(t, http.MethodPatch, map[string]string{"status": models.OrderStatusDelivered}, 9, "admin")
	c.SetParamNames("id")
	c.SetParamValues("1")

	err := h.UpdateOrderStatus(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusConflict, he.Code)

	require.NoError(t, db.First(&order).Error)
	require.Equal(t, models.OrderStatusPending, order.Status)
}

func TestListMyOrdersScopedToUser(t *testing.T) {
	db := newTestDB(t)
	h := &OrderHandler{DB: db}

	require.NoError(t, db.Create(&models.Order{UserID: 1, Total: 10, FinalTotal: 10, Status: models.OrderStatusPending}).Error)
	require.NoError(t, db.Create(&models.Order{UserID: 2, Total: 20, FinalTotal: 20, Status: models.OrderStatusPending}).Error)
	require.NoError(t, db.Create(&models.OrderItem{OrderID: 1, ProductID: 5, Quantity: 2, Price: 5}).Error)

	c, rec := newRequest(t, http.MethodGet, nil, 1, "user")
	require.NoError(t, h.ListMyOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []struct {
		UserID uint `json:"user_id"`
		Items  []struct {
			ProductID uint `json:"product_id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	require.Equal(t, uint(1), resp[0].UserID)
	require.Len(t, resp[0].Items, 1)
	require.Equal(t, uint(5), resp[0].Items[0].ProductID)
}
