package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"gorm.io/gorm"

	"github.com/petcarevet/clinic/internal/logging"
	"github.com/petcarevet/clinic/internal/models"
	"github.com/petcarevet/clinic/internal/service/token"
)

// CheckoutHandler creates hosted payment sessions. No payment method
// data is ever held locally; the browser is redirected to the processor.
type CheckoutHandler struct {
	DB     *gorm.DB
	Origin string
}

func NewCheckoutHandler(db *gorm.DB, stripeKey, origin string) *CheckoutHandler {
	stripe.Key = stripeKey
	return &CheckoutHandler{DB: db, Origin: origin}
}

func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	actor, err := token.ActorFrom(c)
	if err != nil {
		return err
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "checkout", "user_id", actor.ID)

	var req struct {
		PriceID string `json:"price_id"`
		Mode    string `json:"mode"`
	}
	if err := c.Bind(&req); err != nil || req.PriceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "price_id is required")
	}
	if req.Mode == "" {
		req.Mode = string(stripe.CheckoutSessionModePayment)
	}
	if req.Mode != string(stripe.CheckoutSessionModePayment) && req.Mode != string(stripe.CheckoutSessionModeSubscription) {
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be payment or subscription")
	}

	cancelURL := h.Origin + "/servicos"
	if req.Mode == string(stripe.CheckoutSessionModeSubscription) {
		cancelURL = h.Origin + "/planos"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(req.Mode),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card", "boleto"}),
		SuccessURL:         stripe.String(h.Origin + "/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(cancelURL),
		Locale:             stripe.String("pt-BR"),
	}

	var user models.User
	if err := h.DB.First(&user, actor.ID).Error; err == nil && user.Email != "" {
		params.CustomerEmail = stripe.String(user.Email)
	}

	// Card installments are a Brazilian checkout expectation; Stripe only
	// supports them in one-off payment mode.
	if req.Mode == string(stripe.CheckoutSessionModePayment) {
		params.PaymentMethodOptions = &stripe.CheckoutSessionPaymentMethodOptionsParams{
			Card: &stripe.CheckoutSessionPaymentMethodOptionsCardParams{
				Installments: &stripe.CheckoutSessionPaymentMethodOptionsCardInstallmentsParams{
					Enabled: stripe.Bool(true),
				},
			},
		}
	}

	s, err := session.New(params)
	if err != nil {
		l.Error("checkout_session_failed", "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "cannot create checkout session")
	}

	l.Info("checkout_session_created", "session_id", s.ID, "mode", req.Mode)
	return c.JSON(http.StatusOK, echo.Map{"url": s.URL, "session_id": s.ID})
}

// GetSession lets the success page confirm what it just paid for.
func (h *CheckoutHandler) GetSession(c echo.Context) error {
	if _, err := token.ActorFrom(c); err != nil {
		return err
	}

	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	s, err := session.Get(id, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"session_id":     s.ID,
		"status":         s.Status,
		"payment_status": s.PaymentStatus,
	})
}
