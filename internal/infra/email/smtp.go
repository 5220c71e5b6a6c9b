// Package email delivers outbound mail over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/planforge/api/internal/config"
	"github.com/planforge/api/internal/infra/jobs"
	"github.com/planforge/api/pkg/logger"
)

var inviteTemplate = template.Must(template.New("invite").Parse(`<html>
<body>
<p>Hi,</p>
<p>{{.InviterName}} invited you to join <strong>{{.TenantName}}</strong> on PlanForge as a {{.Role}}.</p>
<p>Your invite code: <strong>{{.InviteCode}}</strong></p>
<p><a href="{{.SignupURL}}">Accept the invitation</a></p>
<p>The code is single use and expires in 14 days.</p>
</body>
</html>`))

// Sender sends emails over SMTP. When disabled it logs instead of
// sending, which keeps development setups mail-server free.
type Sender struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
}

// NewSender creates an SMTP sender.
func NewSender(cfg config.SMTPConfig, log *logger.Logger) *Sender {
	return &Sender{cfg: cfg, logger: log.With("component", "email")}
}

// SendInvite implements jobs.EmailSender.
func (s *Sender) SendInvite(ctx context.Context, payload jobs.InviteEmailPayload) error {
	signupURL := fmt.Sprintf("%s/signup?code=%s", s.cfg.BaseURL, payload.InviteCode)

	var body bytes.Buffer
	err := inviteTemplate.Execute(&body, struct {
		jobs.InviteEmailPayload
		SignupURL string
	}{payload, signupURL})
	if err != nil {
		return fmt.Errorf("render invite email: %w", err)
	}

	subject := fmt.Sprintf("You've been invited to %s", payload.TenantName)
	if !s.cfg.Enabled {
		s.logger.Info("smtp disabled, skipping send",
			"to", payload.RecipientEmail,
			"subject", subject,
		)
		return nil
	}

	return s.send(ctx, payload.RecipientEmail, subject, body.String())
}

func (s *Sender) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.FromName, s.cfg.From, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
