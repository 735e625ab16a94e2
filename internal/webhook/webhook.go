package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/logging"
	"github.com/petcarevet/clinic/internal/models"
)

const maxAttempts = 3

// ClinicZone is the presentation timezone for payload dates.
// Appointments are stored in UTC; the receiving automation expects
// clinic-local wall time.
var ClinicZone = time.FixedZone("UTC-3", -3*60*60)

var statusLabels = map[string]string{
	models.AppointmentConfirmed: "aprovado",
	models.AppointmentCancelled: "recusado",
	models.AppointmentCompleted: "finalizado",
	models.AppointmentPending:   "pendente",
}

// StatusLabel maps an appointment status to the Portuguese label the
// webhook consumer expects. Unknown statuses pass through unchanged.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Payload is the flat JSON body delivered to the configured endpoint.
// Field names are part of the wire contract with the clinic's automation.
type Payload struct {
	TutorName string `json:"nome_tutor"`
	Phone     string `json:"telefone"`
	PetName   string `json:"nome_pet"`
	Service   string `json:"servico"`
	Date      string `json:"data"`
	Time      string `json:"horario"`
	Status    string `json:"status,omitempty"`
}

func BuildPayload(appt *models.Appointment, statusLabel string) Payload {
	local := appt.AppointmentDate.In(ClinicZone)
	return Payload{
		TutorName: appt.TutorName,
		Phone:     appt.Phone,
		PetName:   appt.PetName,
		Service:   appt.Service,
		Date:      local.Format("02/01/2006"),
		Time:      local.Format("15:04"),
		Status:    statusLabel,
	}
}

// Enqueue writes an outbox row. Run it on the same transaction as the
// booking or status change so a committed primary write always has a
// pending notification, and a rolled-back one has none.
func Enqueue(tx *gorm.DB, appointmentID uint, kind, statusLabel string) error {
	row := models.WebhookDelivery{
		AppointmentID: appointmentID,
		Kind:          kind,
		StatusLabel:   statusLabel,
		State:         models.DeliveryPending,
	}
	return tx.Create(&row).Error
}

// Dispatcher drains the outbox in the background: each pending row is
// POSTed at most maxAttempts times and every attempt is recorded in the
// audit log regardless of outcome.
type Dispatcher struct {
	DB        *gorm.DB
	Client    *http.Client
	StatusURL string
	Interval  time.Duration
}

func NewDispatcher(db *gorm.DB, statusURL string) *Dispatcher {
	return &Dispatcher{
		DB:        db,
		Client:    &http.Client{Timeout: 10 * time.Second},
		StatusURL: statusURL,
		Interval:  5 * time.Second,
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.ProcessPending(ctx); err != nil {
				logging.FromContext(ctx).Error("webhook_dispatch_error", "error", err)
			}
		}
	}
}

// ProcessPending handles one batch of outbox rows.
func (d *Dispatcher) ProcessPending(ctx context.Context) error {
	var deliveries []models.WebhookDelivery
	err := d.DB.Where("state = ?", models.DeliveryPending).
		Order("id ASC").Limit(20).Find(&deliveries).Error
	if err != nil {
		return err
	}

	for i := range deliveries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.deliver(ctx, &deliveries[i])
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, delivery *models.WebhookDelivery) {
	l := logging.FromContext(ctx).With("delivery_id", delivery.ID, "appointment_id", delivery.AppointmentID)

	url, err := d.targetURL(delivery.Kind)
	if err != nil {
		l.Error("webhook_target_error", "error", err)
		return
	}
	if url == "" {
		// No active endpoint configured: a silent no-op, not a failure.
		d.DB.Model(delivery).Update("state", models.DeliverySkipped)
		l.Info("webhook_skipped", "reason", "no_active_config")
		return
	}

	var appt models.Appointment
	if err := d.DB.First(&appt, delivery.AppointmentID).Error; err != nil {
		d.DB.Model(delivery).Update("state", models.DeliveryFailed)
		l.Error("webhook_appointment_missing", "error", err)
		return
	}

	payload := BuildPayload(&appt, delivery.StatusLabel)
	ok, respText, err := d.post(ctx, url, payload)
	success := err == nil && ok

	logStatus := "failed"
	if success {
		logStatus = "success"
	}
	apptID := delivery.AppointmentID
	d.DB.Create(&models.WebhookLog{
		AppointmentID: &apptID,
		Status:        logStatus,
		Response:      respText,
	})

	attempts := delivery.Attempts + 1
	state := models.DeliveryPending
	if success {
		state = models.DeliverySent
	} else if attempts >= maxAttempts {
		state = models.DeliveryFailed
	}
	d.DB.Model(delivery).Updates(map[string]interface{}{
		"attempts": attempts,
		"state":    state,
	})

	l.Info("webhook_attempt", "success", success, "attempts", attempts, "state", state)
}

func (d *Dispatcher) targetURL(kind string) (string, error) {
	if kind == models.DeliveryKindStatus {
		return d.StatusURL, nil
	}

	var cfg models.WebhookConfig
	err := d.DB.Where("active = ?", true).Order("id DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return cfg.URL, nil
}

func (d *Dispatcher) post(ctx context.Context, url string, payload Payload) (bool, string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return false, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return false, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return false, err.Error(), nil
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	return ok, string(respBody), nil
}
