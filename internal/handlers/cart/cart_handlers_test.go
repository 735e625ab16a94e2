package cart

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petcarevet/clinic/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.CartItem{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func newRequest(t *testing.T, method string, body any, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", "user")
	return c, rec
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock uint) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name, Price: price, Stock: stock, Active: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestAddToCartCreatesAndMerges(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Ração Premium", 89.9, 10)

	c, rec := newRequest(t, http.MethodPost, map[string]any{"product_id": p.ID, "quantity": 2}, 1)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Same product again merges into the existing line.
	c, _ = newRequest(t, http.MethodPost, map[string]any{"product_id": p.ID, "quantity": 3}, 1)
	require.NoError(t, h.AddToCart(c))

	var items []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&items).Error)
	require.Len(t, items, 1)
	require.Equal(t, uint(5), items[0].Quantity)
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Brinquedo", 19.9, 5)

	c, _ := newRequest(t, http.MethodPost, map[string]any{"product_id": p.ID}, 1)
	require.NoError(t, h.AddToCart(c))

	var item models.CartItem
	require.NoError(t, db.First(&item).Error)
	require.Equal(t, uint(1), item.Quantity)
}

func TestAddToCartInactiveProduct(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := models.Product{Name: "Descontinuado", Description: "x", Price: 10, Stock: 5, Active: false}
	require.NoError(t, db.Create(&p).Error)

	c, _ := newRequest(t, http.MethodPost, map[string]any{"product_id": p.ID}, 1)
	err := h.AddToCart(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteOneFromCart(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Petisco", 9.9, 10)

	item := models.CartItem{UserID: 1, ProductID: p.ID, Quantity: 2}
	require.NoError(t, db.Create(&item).Error)

	c, _ := newRequest(t, http.MethodDelete, nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteOneFromCart(c))

	require.NoError(t, db.First(&item).Error)
	require.Equal(t, uint(1), item.Quantity)

	// Removing the last unit deletes the row.
	c, _ = newRequest(t, http.MethodDelete, nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteOneFromCart(c))

	var count int64
	db.Model(&models.CartItem{}).Count(&count)
	require.Zero(t, count)
}

func TestDeleteOneFromCartOtherUsersItem(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, "Petisco", 9.9, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 2, ProductID: p.ID, Quantity: 1}).Error)

	c, _ := newRequest(t, http.MethodDelete, nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.DeleteOneFromCart(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeleteAllFromCart(t *testing.T) {
	db := newTestDB(t)
	h := &CartHandler{DB: db}
	p1 := seedProduct(t, db, "Ração", 50, 10)
	p2 := seedProduct(t, db, "Areia", 30, 10)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p1.ID, Quantity: 4}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p2.ID, Quantity: 1}).Error)

	c, rec := newRequest(t, http.MethodDelete, nil, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteAllFromCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var remaining []models.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, p2.ID, remaining[0].ProductID)
}
