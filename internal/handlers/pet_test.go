package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petcarevet/clinic/internal/models"
)

func TestCreateAndListPets(t *testing.T) {
	db := newTestDB(t)
	h := &PetHandler{DB: db}

	c, rec := newRequest(t, http.MethodPost, map[string]string{
		"name": "Rex", "species": "cachorro", "breed": "vira-lata",
	}, 1, "user")
	require.NoError(t, h.CreatePet(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	// A different user's pet never shows in the listing.
	require.NoError(t, db.Create(&models.Pet{UserID: 2, Name: "Mimi", Species: "gato"}).Error)

	c, rec = newRequest(t, http.MethodGet, nil, 1, "user")
	require.NoError(t, h.ListPets(c))

	var pets []models.Pet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pets))
	require.Len(t, pets, 1)
	require.Equal(t, "Rex", pets[0].Name)
}

func TestCreatePetValidation(t *testing.T) {
	db := newTestDB(t)
	h := &PetHandler{DB: db}

	c, _ := newRequest(t, http.MethodPost, map[string]string{"name": "Rex"}, 1, "user")
	err := h.CreatePet(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestPatchPetScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	h := &PetHandler{DB: db}
	require.NoError(t, db.Create(&models.Pet{UserID: 2, Name: "Mimi", Species: "gato"}).Error)

	c, _ := newRequest(t, http.MethodPatch, map[string]string{"name": "Hacked"}, 1, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.PatchPet(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestDeletePet(t *testing.T) {
	db := newTestDB(t)
	h := &PetHandler{DB: db}
	require.NoError(t, db.Create(&models.Pet{UserID: 1, Name: "Rex", Species: "cachorro"}).Error)

	c, rec := newRequest(t, http.MethodDelete, nil, 1, "user")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeletePet(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	db.Model(&models.Pet{}).Count(&count)
	require.Zero(t, count)
}
