package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/logging"
	"github.com/petcarevet/clinic/internal/models"
	"github.com/petcarevet/clinic/internal/mykafka"
	"github.com/petcarevet/clinic/internal/service/token"
	"github.com/petcarevet/clinic/internal/webhook"
)

// Services the clinic offers; the booking form only submits one of these.
var Services = []string{
	"Consulta Veterinária",
	"Vacinação",
	"Banho e Tosa",
	"Banho Terapêutico",
	"Vermifugação",
	"Check-up Completo",
}

var transitions = map[string][]string{
	models.AppointmentPending:   {models.AppointmentConfirmed, models.AppointmentCancelled},
	models.AppointmentConfirmed: {models.AppointmentCompleted, models.AppointmentCancelled},
}

// CanTransition reports whether the status edge exists. Completed and
// cancelled have no outgoing edges.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func validService(s string) bool {
	for _, svc := range Services {
		if svc == s {
			return true
		}
	}
	return false
}

// ValidSlot checks the clinic's booking grid: half-hour slots from 08:00
// to 11:30 and 14:00 to 18:00, clinic-local time.
func ValidSlot(t time.Time) bool {
	local := t.In(webhook.ClinicZone)
	if local.Minute()%30 != 0 || local.Second() != 0 {
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	morning := minutes >= 8*60 && minutes <= 11*60+30
	afternoon := minutes >= 14*60 && minutes <= 18*60
	return morning || afternoon
}

type AppointmentHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

func (h *AppointmentHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "appointment_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

// Create books a pending appointment and enqueues the booking
// notification in the same transaction. Notification delivery never
// decides booking success.
func (h *AppointmentHandler) Create(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "appointment_create", "user_id", actor.ID)

	var req struct {
		TutorName       string    `json:"tutor_name"`
		PetName         string    `json:"pet_name"`
		Phone           string    `json:"phone"`
		Service         string    `json:"service"`
		AppointmentDate time.Time `json:"appointment_date"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if req.TutorName == "" || req.PetName == "" || req.Phone == "" || req.Service == "" || req.AppointmentDate.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "all fields are required")
	}
	if !validService(req.Service) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown service")
	}
	if req.AppointmentDate.Before(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "appointment date cannot be in the past")
	}
	if !ValidSlot(req.AppointmentDate) {
		return echo.NewHTTPError(http.StatusBadRequest, "time is outside clinic hours")
	}

	appt := models.Appointment{
		UserID:          actor.ID,
		TutorName:       req.TutorName,
		PetName:         req.PetName,
		Phone:           req.Phone,
		Service:         req.Service,
		AppointmentDate: req.AppointmentDate.UTC(),
		Status:          models.AppointmentPending,
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&appt).Error; err != nil {
			return err
		}
		return webhook.Enqueue(tx, appt.ID, models.DeliveryKindBooking, "")
	})
	if txErr != nil {
		l.Error("appointment_create_failed", "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create appointment")
	}

	h.publish(c, map[string]any{
		"type":          "appointment_created",
		"userID":        actor.ID,
		"appointmentID": appt.ID,
		"service":       appt.Service,
	})

	l.Info("appointment_created", "appointment_id", appt.ID)
	return c.JSON(http.StatusCreated, appt)
}

func (h *AppointmentHandler) ListMine(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	var appts []models.Appointment
	if err := h.DB.Where("user_id = ?", actor.ID).Order("appointment_date ASC").Find(&appts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *AppointmentHandler) ListAll(c echo.Context) error {
	var appts []models.Appointment
	if err := h.DB.Order("appointment_date ASC").Find(&appts).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, appts)
}

// Transition moves an appointment along the status machine and enqueues
// the status notification. The route is admin-gated; the actor is
// re-checked here rather than trusted from the caller.
func (h *AppointmentHandler) Transition(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

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

	l := logging.FromContext(c.Request().Context()).With("handler", "appointment_transition", "appointment_id", id)

	var appt models.Appointment
	if err := h.DB.First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if !CanTransition(appt.Status, req.Status) {
		return echo.NewHTTPError(http.StatusConflict,
			fmt.Sprintf("cannot transition appointment from %s to %s", appt.Status, req.Status))
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&appt).Update("status", req.Status).Error; err != nil {
			return err
		}
		return webhook.Enqueue(tx, appt.ID, models.DeliveryKindStatus, webhook.StatusLabel(req.Status))
	})
	if txErr != nil {
		l.Error("appointment_transition_failed", "error", txErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update appointment")
	}
	appt.Status = req.Status

	h.publish(c, map[string]any{
		"type":          "appointment_status_changed",
		"userID":        appt.UserID,
		"appointmentID": appt.ID,
		"status":        appt.Status,
	})

	l.Info("appointment_transitioned", "status", appt.Status)
	return c.JSON(http.StatusOK, appt)
}

// ResendWebhook re-enqueues the booking notification. Only the owner or
// an admin may trigger it.
func (h *AppointmentHandler) ResendWebhook(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var appt models.Appointment
	if err := h.DB.First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if appt.UserID != actor.ID && !actor.IsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to trigger webhook for this appointment")
	}

	if err := webhook.Enqueue(h.DB, appt.ID, models.DeliveryKindBooking, ""); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "webhook queued"})
}
