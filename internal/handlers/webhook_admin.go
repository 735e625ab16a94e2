package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/models"
)

// WebhookAdminHandler manages the operator-configured outbound endpoint
// and exposes the delivery audit trail.
type WebhookAdminHandler struct {
	DB *gorm.DB
}

func (h *WebhookAdminHandler) ListConfigs(c echo.Context) error {
	var configs []models.WebhookConfig
	if err := h.DB.Order("id DESC").Find(&configs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, configs)
}

func (h *WebhookAdminHandler) CreateConfig(c echo.Context) error {
	var req struct {
		URL    string `json:"url"`
		Active *bool  `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url is required")
	}

	cfg := models.WebhookConfig{URL: req.URL, Active: true}
	if req.Active != nil {
		cfg.Active = *req.Active
	}
	if err := h.DB.Create(&cfg).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, cfg)
}

func (h *WebhookAdminHandler) PatchConfig(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req struct {
		URL    string `json:"url"`
		Active *bool  `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var cfg models.WebhookConfig
	if err := h.DB.First(&cfg, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "webhook config not found")
	}

	if req.URL != "" {
		cfg.URL = req.URL
	}
	if req.Active != nil {
		cfg.Active = *req.Active
	}
	if err := h.DB.Save(&cfg).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *WebhookAdminHandler) DeleteConfig(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.DB.Delete(&models.WebhookConfig{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WebhookAdminHandler) ListLogs(c echo.Context) error {
	limit := parseIntDefault(c.QueryParam("limit"), 50)
	if limit > 200 {
		limit = 200
	}

	var logs []models.WebhookLog
	if err := h.DB.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, logs)
}
