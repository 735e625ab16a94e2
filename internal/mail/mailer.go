package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/petcarevet/clinic/internal/logging"
)

// Mailer sends transactional email through Resend. A nil *Mailer is a
// no-op so callers never fail their primary action over email delivery.
type Mailer struct {
	client *resend.Client
	from   string
}

func New(apiKey, from string) *Mailer {
	if apiKey == "" {
		return nil
	}
	return &Mailer{client: resend.NewClient(apiKey), from: from}
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) {
	if m == nil {
		return
	}
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		logging.FromContext(ctx).Error("mail_send_failed", "to", to, "subject", subject, "error", err)
	}
}

// SendConfirmation delivers the account-confirmation email. Fire and
// forget: failures are logged only.
func (m *Mailer) SendConfirmation(ctx context.Context, to, confirmURL string) {
	html := fmt.Sprintf(confirmationTemplate, confirmURL)
	m.send(ctx, to, "Confirme sua conta | PetCare", html)
}

// SendPasswordReset delivers the password-reset email.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, resetURL string) {
	html := fmt.Sprintf(resetTemplate, resetURL)
	m.send(ctx, to, "Redefinir Senha | PetCare", html)
}

const confirmationTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: 'Poppins', Arial, sans-serif; background-color: #f9f9fb; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: 40px auto; background: #ffffff; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(90deg, #8b5cf6, #7c3aed); color: white; text-align: center; padding: 32px 20px;">
      <h1 style="margin: 0; font-size: 24px;">Bem-vindo ao PetCare!</h1>
    </div>
    <div style="padding: 32px 24px;">
      <p>Confirme sua conta clicando no botão abaixo:</p>
      <p style="text-align: center;">
        <a href="%s" style="background: #7c3aed; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none;">Confirmar conta</a>
      </p>
      <p>Se você não criou esta conta, ignore este e-mail.</p>
    </div>
  </div>
</body>
</html>`

const resetTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<body style="font-family: 'Poppins', Arial, sans-serif; background-color: #f9f9fb; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: 40px auto; background: #ffffff; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(90deg, #8b5cf6, #7c3aed); color: white; text-align: center; padding: 32px 20px;">
      <h1 style="margin: 0; font-size: 24px;">Redefinir Senha</h1>
    </div>
    <div style="padding: 32px 24px;">
      <p>Recebemos uma solicitação para redefinir sua senha. Clique no botão abaixo para continuar:</p>
      <p style="text-align: center;">
        <a href="%s" style="background: #7c3aed; color: white; padding: 12px 32px; border-radius: 8px; text-decoration: none;">Redefinir senha</a>
      </p>
      <p>Se você não solicitou a redefinição, ignore este e-mail.</p>
    </div>
  </div>
</body>
</html>`
