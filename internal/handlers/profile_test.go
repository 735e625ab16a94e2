package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petcarevet/clinic/internal/models"
)

func TestGetMyProfile(t *testing.T) {
	db := newTestDB(t)
	h := &ProfileHandler{DB: db}
	require.NoError(t, db.Create(&models.Profile{UserID: 1, FullName: "Maria Silva", Phone: "119"}).Error)

	c, rec := newRequest(t, http.MethodGet, nil, 1, "user")
	require.NoError(t, h.GetMyProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Maria Silva", resp.FullName)
}

func TestGetMyProfileNotFound(t *testing.T) {
	db := newTestDB(t)
	h := &ProfileHandler{DB: db}

	c, _ := newRequest(t, http.MethodGet, nil, 1, "user")
	err := h.GetMyProfile(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateMyProfileCreatesRowWhenMissing(t *testing.T) {
	db := newTestDB(t)
	h := &ProfileHandler{DB: db}

	c, rec := newRequest(t, http.MethodPatch, map[string]string{"full_name": "Maria Silva", "phone": "119"}, 1, "user")
	require.NoError(t, h.UpdateMyProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var profile models.Profile
	require.NoError(t, db.Where("user_id = ?", 1).First(&profile).Error)
	require.Equal(t, "Maria Silva", profile.FullName)

	// Partial update keeps the untouched field.
	c, _ = newRequest(t, http.MethodPatch, map[string]string{"phone": "11888887777"}, 1, "user")
	require.NoError(t, h.UpdateMyProfile(c))
	require.NoError(t, db.Where("user_id = ?", 1).First(&profile).Error)
	require.Equal(t, "Maria Silva", profile.FullName)
	require.Equal(t, "11888887777", profile.Phone)
}
